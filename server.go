package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kataras/iris/v12"

	"github.com/xor-shift/xsrng/common"
	"github.com/xor-shift/xsrng/dispense"
	"github.com/xor-shift/xsrng/util"
	"github.com/xor-shift/xsrng/util/rng"
)

func newApp(d *dispense.Dispenser) *iris.Application {
	app := iris.New()

	app.Get("/draw", func(ctx iris.Context) {
		req, err := drawRequestFromQuery(ctx)
		if err != nil {
			ctx.StatusCode(iris.StatusBadRequest)
			_, _ = ctx.JSON(iris.Map{"error": err.Error()})
			return
		}

		batch, err := d.Draw(req)
		if err != nil {
			status := iris.StatusBadRequest
			if errors.Is(err, dispense.ErrNotPublished) {
				status = iris.StatusInternalServerError
			}

			app.Logger().Debugf("/draw rejected %+v: %s", req, err)
			ctx.StatusCode(status)
			_, _ = ctx.JSON(iris.Map{"error": err.Error()})
			return
		}

		_, _ = ctx.JSON(batch)
	})

	app.Post("/draw", func(ctx iris.Context) {
		body, err := ctx.GetBody()
		if err != nil {
			app.Logger().Warnf("/draw (POST) error (body): %s", err)
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		requests, err := common.ParseDrawRequests(body, d.MaxCount())
		if err != nil {
			app.Logger().Debugf("/draw (POST) error (ParseDrawRequests): %s", err)

			ctx.StatusCode(iris.StatusBadRequest)
			_, _ = ctx.Text("+DRAW_FAIL %s", err)
			return
		}

		if err = d.Submit(ctx.Request().Context(), requests); err != nil {
			app.Logger().Warnf("/draw (POST) error (Submit): %s", err)

			if errors.Is(err, dispense.ErrStopped) {
				ctx.StatusCode(iris.StatusServiceUnavailable)
			} else {
				ctx.StatusCode(iris.StatusBadRequest)
			}
			_, _ = ctx.Text("+DRAW_FAIL %s", err)
			return
		}

		_, _ = ctx.Text("+DRAW_QUEUED %d", len(requests))
	})

	app.Get("/session", func(ctx iris.Context) {
		id, seed := d.Session()

		_, _ = ctx.JSON(iris.Map{
			"sessionId": id,
			"seed":      util.ArrayToString([]uint64{seed}),
		})
	})

	// the body is an optional hex seed, the clock is used without one
	app.Post("/session/reset", func(ctx iris.Context) {
		app.Logger().Infof("session reset request from %s", ctx.RemoteAddr())

		body, err := ctx.GetBody()
		if err != nil {
			app.Logger().Warnf("/session/reset error (body): %s", err)
			ctx.StatusCode(iris.StatusBadRequest)
			return
		}

		seed := rng.TickSeed()
		if text := strings.TrimSpace(string(body)); text != "" {
			if seed, err = util.ParseHexUint64(text); err != nil {
				ctx.StatusCode(iris.StatusBadRequest)
				_, _ = ctx.Text("+SESSION_RESET_FAIL 1")
				return
			}
		}

		id, err := d.Reset(ctx.Request().Context(), seed)
		if err != nil {
			app.Logger().Errorf("session reset failed with error: %s", err)

			ctx.StatusCode(iris.StatusInternalServerError)
			_, _ = ctx.Text("+SESSION_RESET_FAIL 0")
			return
		}

		_, _ = ctx.Text("+SESSION_RESET_SUCC %d %016x", id, seed)
	})

	return app
}

// drawRequestFromQuery reads min, max and count, defaulting to 0, 0 and 1.
// Values that are present must parse.
func drawRequestFromQuery(ctx iris.Context) (common.DrawRequest, error) {
	req := common.DrawRequest{Count: 1}

	for _, param := range []struct {
		name string
		dst  *int
	}{{"min", &req.Min}, {"max", &req.Max}, {"count", &req.Count}} {
		text := ctx.URLParam(param.name)
		if text == "" {
			continue
		}

		v, err := strconv.Atoi(text)
		if err != nil {
			return req, fmt.Errorf("%s is not an integer (got: %q)", param.name, text)
		}
		*param.dst = v
	}

	return req, nil
}
