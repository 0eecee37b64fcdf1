// Package validate decodes and validates request bodies against their
// typed schema. Unknown fields are rejected before any value reaches the
// service layer.
package validate

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string {
	msg := ""
	for i, ef := range e {
		if i > 0 {
			msg += "; "
		}
		msg += ef.Field + ": " + ef.Msg
	}
	return msg
}

// DecodeJSON strictly decodes the body into dst and runs struct-tag
// validation on it.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return Errs{{Field: "body", Msg: "malformed json: " + err.Error()}}
	}
	return Struct(dst)
}

// Struct validates dst's `validate:` tags.
func Struct(dst any) error {
	if err := v.Struct(dst); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return Errs{{Field: "body", Msg: err.Error()}}
		}
		out := make(Errs, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, ErrField{
				Field: fe.Field(),
				Msg:   fmt.Sprintf("failed on %q", fe.Tag()),
			})
		}
		return out
	}
	return nil
}
