package handler

import (
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/xenking/ecommerce-store/internal/domain"
)

const maxBodySize = 1 << 20

// decoder is implemented by request DTOs.
type decoder interface {
	Decode(d *jx.Decoder) error
}

// checker is implemented by request DTOs with rules beyond struct tags.
type checker interface {
	check() error
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeBody reads, parses and validates the request body into v.
func (h *Handler) decodeBody(r *http.Request, v decoder) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return &bodyError{err: err}
	}
	if err := v.Decode(jx.DecodeBytes(body)); err != nil {
		return &bodyError{err: err}
	}
	if err := h.validate.Struct(v); err != nil {
		return validationError(err)
	}
	if c, ok := v.(checker); ok {
		return c.check()
	}
	return nil
}

// validationError turns the first failed validator rule into an
// InvalidArgumentError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(err, "validate request")
	}

	fe := verrs[0]
	reason := "failed " + fe.Tag() + " validation"
	switch fe.Tag() {
	case "required":
		reason = "must not be blank"
	case "gt":
		reason = "must be greater than " + fe.Param()
	case "gte":
		reason = "must be at least " + fe.Param()
	}
	return &domain.InvalidArgumentError{Field: fe.Field(), Reason: reason}
}

func writeJSON(w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// encodeMoney writes d as a JSON number with two decimal places.
func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Raw([]byte(d.StringFixed(2)))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

// encodeOptStr writes s, or null when s is empty.
func encodeOptStr(e *jx.Encoder, s string) {
	if s == "" {
		e.Null()
		return
	}
	e.Str(s)
}

// decodeOptStr reads a string that may be null.
func decodeOptStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
