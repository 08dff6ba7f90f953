package rest

import (
	"net/http"
	"strings"

	"lending/core"
	"lending/handler/param"
	"lending/handler/render"
	"lending/handler/views"
	"lending/pkg/calldata"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/twitchtv/twirp"
)

type callBody struct {
	Target string `json:"target" valid:"required"`
	// Value base units as a decimal integer, usually "0"
	Value     string `json:"value"`
	Signature string `json:"signature" valid:"required"`
	// Data hex encoded payload, takes precedence over Arg
	Data string `json:"data"`
	// Arg textual argument encoded for the signature's single parameter
	Arg string `json:"arg"`
	Eta int64  `json:"eta" valid:"required"`
}

func (b *callBody) call() (*core.Call, error) {
	target, err := param.Address("target", b.Target)
	if err != nil {
		return nil, err
	}

	value := new(uint256.Int)
	if b.Value != "" {
		if value, err = uint256.FromDecimal(b.Value); err != nil {
			return nil, twirp.InvalidArgumentError("value", "must be a decimal integer")
		}
	}

	var payload []byte
	switch {
	case b.Data != "":
		data := b.Data
		if !strings.HasPrefix(data, "0x") {
			data = "0x" + data
		}
		if payload, err = hexutil.Decode(data); err != nil {
			return nil, twirp.InvalidArgumentError("data", err.Error())
		}
	case b.Arg != "":
		if payload, err = calldata.Encode(b.Signature, b.Arg); err != nil {
			return nil, twirp.InvalidArgumentError("arg", err.Error())
		}
	}

	return &core.Call{
		Target:    target,
		Value:     value,
		Signature: b.Signature,
		Payload:   payload,
		Eta:       b.Eta,
	}, nil
}

func bindCall(r *http.Request) (*core.Call, error) {
	var body callBody
	if err := param.Binding(r, &body); err != nil {
		return nil, err
	}

	return body.call()
}

func pendingCallsHandler(governor core.TimelockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		calls, err := governor.Pending(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		delay, err := governor.Delay(r.Context())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{
			"delay": delay,
			"calls": views.PendingCallViews(calls),
		})
	}
}

func queueHandler(governor core.TimelockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		call, err := bindCall(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		id, events, err := governor.Queue(r.Context(), callerOf(r), call)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{
			"id":     id.Hex(),
			"events": views.EventViews(events),
		})
	}
}

func executeHandler(governor core.TimelockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		call, err := bindCall(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		events, err := governor.Execute(r.Context(), callerOf(r), call)
		if err != nil {
			render.Error(w, err)
			return
		}

		renderEvents(w, events)
	}
}

func cancelHandler(governor core.TimelockService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		call, err := bindCall(r)
		if err != nil {
			render.Error(w, err)
			return
		}

		events, err := governor.Cancel(r.Context(), callerOf(r), call)
		if err != nil {
			render.Error(w, err)
			return
		}

		renderEvents(w, events)
	}
}
