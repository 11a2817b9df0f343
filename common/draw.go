package common

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/xor-shift/xsrng/util/rng"
)

// DrawRequest asks for Count draws in [Min, Max).
type DrawRequest struct {
	Min   int `json:"min" mapstructure:"min"`
	Max   int `json:"max" mapstructure:"max"`
	Count int `json:"count" mapstructure:"count"`
}

func (req DrawRequest) Validate(maxCount int) error {
	if err := rng.CheckRange(req.Min, req.Max); err != nil {
		return err
	}

	if req.Count <= 0 {
		return fmt.Errorf("count must be positive (got: %d)", req.Count)
	}

	if req.Count > maxCount {
		return fmt.Errorf("count is too large (got: %d, limit: %d)", req.Count, maxCount)
	}

	return nil
}

// DrawBatch is the result of one DrawRequest. Order is the position of the
// batch within its session.
type DrawBatch struct {
	SessionID uint        `json:"sessionId"`
	Seed      uint64      `json:"seed"`
	Order     uint        `json:"order"`
	Request   DrawRequest `json:"request"`
	Values    []int       `json:"values"`
}

// ParseDrawRequests decodes a JSON array of requests and validates each.
func ParseDrawRequests(body []byte, maxCount int) (requests []DrawRequest, err error) {
	var raw []map[string]interface{}
	bodyDecoder := json.NewDecoder(bytes.NewReader(body))
	bodyDecoder.UseNumber()
	if err = bodyDecoder.Decode(&raw); err != nil {
		err = errors.Wrap(err, "bad request body")
		return
	}

	if _, err = bodyDecoder.Token(); err != io.EOF {
		err = errors.New("bad request body: trailing data after the request array")
		return
	}
	err = nil

	if len(raw) == 0 {
		err = errors.New("no requests in body")
		return
	}

	requests = make([]DrawRequest, len(raw))

	for k, v := range raw {
		var decoder *mapstructure.Decoder
		if decoder, err = mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			DecodeHook:  mapstructure.DecodeHookFuncType(integralNumberHook),
			ErrorUnused: true,
			Result:      &requests[k],
		}); err != nil {
			return nil, err
		}

		if err = decoder.Decode(v); err != nil {
			return nil, errors.Wrapf(err, "request at index %d is malformed", k)
		}

		if err = requests[k].Validate(maxCount); err != nil {
			return nil, errors.Wrapf(err, "request at index %d is invalid", k)
		}
	}

	return
}

var jsonNumberType = reflect.TypeOf(json.Number(""))

// integralNumberHook turns JSON numbers into ints, refusing fractions and
// exponents instead of truncating them.
func integralNumberHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from != jsonNumberType || to.Kind() != reflect.Int {
		return data, nil
	}

	n, err := strconv.ParseInt(string(data.(json.Number)), 10, 0)
	if err != nil {
		return nil, fmt.Errorf("%s is not an integer", data)
	}

	return int(n), nil
}

func EncodeBatch(batch DrawBatch) ([]byte, error) {
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(batch); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

func DecodeBatch(body []byte) (batch DrawBatch, err error) {
	err = gob.NewDecoder(bytes.NewReader(body)).Decode(&batch)
	return
}
