package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/template"

	"github.com/pkg/errors"

	"github.com/xor-shift/xsrng/common"
	"github.com/xor-shift/xsrng/util/rng"
)

// replay redraws batches from seed in order. Batches must be contiguous from
// order 0, a gap means a draw that was never stored and the rest of the
// sequence cannot be reconstructed.
func replay(seed uint64, stored []common.DrawBatch) ([]common.DrawBatch, error) {
	state := rng.NewXorShift128P(seed)
	replayed := make([]common.DrawBatch, len(stored))

	for i, batch := range stored {
		if batch.Order != uint(i) {
			return nil, fmt.Errorf("batch %d is missing, the session cannot be replayed past it", i)
		}

		req := batch.Request
		if err := rng.CheckRange(req.Min, req.Max); err != nil {
			return nil, errors.Wrapf(err, "batch %d", i)
		}

		if req.Count < 0 {
			return nil, fmt.Errorf("batch %d has a negative count", i)
		}

		values := make([]int, req.Count)
		for j := range values {
			values[j] = state.Next(req.Min, req.Max)
		}

		replayed[i] = batch
		replayed[i].Seed = seed
		replayed[i].Values = values
	}

	return replayed, nil
}

// mismatches counts values that differ between stored and replayed batches.
func mismatches(stored, replayed []common.DrawBatch) int {
	count := 0

	for i := range stored {
		a, b := stored[i].Values, replayed[i].Values
		if len(a) != len(b) {
			count += maxInt(len(a), len(b))
			continue
		}

		for j := range a {
			if a[j] != b[j] {
				count++
			}
		}
	}

	return count
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

const maxOfflineCount = 1 << 24

// offlineBatch draws a single batch straight from a seed.
func offlineBatch(seed uint64, req common.DrawRequest) (common.DrawBatch, error) {
	if err := req.Validate(maxOfflineCount); err != nil {
		return common.DrawBatch{}, err
	}

	replayed, err := replay(seed, []common.DrawBatch{{Request: req}})
	if err != nil {
		return common.DrawBatch{}, err
	}

	return replayed[0], nil
}

type outputNameArguments struct {
	SessionNo uint
	Seed      string
	Format    string
}

func outputName(pattern string, args outputNameArguments) (string, error) {
	tmpl, err := template.New("").Parse(pattern)
	if err != nil {
		return "", errors.Wrap(err, "creating the output filename template")
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, args); err != nil {
		return "", errors.Wrap(err, "executing the output filename template")
	}

	return buf.String(), nil
}

// writeCSV writes one row per value.
func writeCSV(w io.Writer, batches []common.DrawBatch, columnTitles bool) error {
	csvWriter := csv.NewWriter(w)

	if columnTitles {
		if err := csvWriter.Write([]string{"Session", "Batch Order", "Index", "Min", "Max", "Value"}); err != nil {
			return err
		}
	}

	for _, batch := range batches {
		for i, v := range batch.Values {
			if err := csvWriter.Write([]string{
				strconv.FormatUint(uint64(batch.SessionID), 10),
				strconv.FormatUint(uint64(batch.Order), 10),
				strconv.Itoa(i),
				strconv.Itoa(batch.Request.Min),
				strconv.Itoa(batch.Request.Max),
				strconv.Itoa(v),
			}); err != nil {
				return err
			}
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func writeJSON(w io.Writer, batches []common.DrawBatch) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(batches)
}
