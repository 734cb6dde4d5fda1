package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"venue-backend/internal/metadata"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

const (
	msgRequired = "El campo %s es obligatorio."
	msgInteger  = "El campo %s debe ser un número entero."
	msgNumeric  = "El campo %s debe ser numérico."
	msgBoolean  = "El campo %s debe tener un valor verdadero o falso."
	msgString   = "El campo %s debe ser una cadena de caracteres."
	msgAlphaNum = "El campo %s sólo debe contener letras y números."
	msgEmail    = "El campo %s debe ser una dirección de correo válida."
	msgMax      = "El campo %s no debe ser mayor que %d caracteres."
	msgInvalid  = "El campo %s no es válido."
)

type writeMode int

const (
	modeCreate writeMode = iota
	modeUpdate
)

// attribute is how a field is named in messages: "id_pais" -> "id pais".
func attribute(name string) string {
	return strings.ReplaceAll(name, "_", " ")
}

// validateRecord checks input against the entity's declared fields and
// returns the coerced column values to write. On update, KeepOnNull fields
// that are absent or null are left out so the stored value survives.
func validateRecord(entity *metadata.Entity, in Input, mode writeMode) (map[string]any, FieldErrors) {
	values := make(map[string]any, len(entity.Fields))
	errs := FieldErrors{}

	for i := range entity.Fields {
		f := &entity.Fields[i]
		if mode == modeCreate && f.UpdateOnly {
			continue
		}

		raw, presence := in.Lookup(f.Name)
		if presence == Present && !f.Required && isEmptyString(raw) {
			presence = Null
		}

		if presence != Present || (f.Required && isEmptyString(raw)) {
			switch {
			case f.Required:
				errs.add(f.Name, fmt.Sprintf(msgRequired, attribute(f.Name)))
			case mode == modeUpdate && f.KeepOnNull:
				// keep stored value
			case f.Default != nil:
				values[f.Name] = f.Default
			default:
				values[f.Name] = nil
			}
			continue
		}

		v, msg := coerceField(f, raw)
		if msg != "" {
			errs.add(f.Name, msg)
			continue
		}
		values[f.Name] = v
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return values, nil
}

// validateKeyPair checks the <varying>_old / <varying>_new pair of an
// association key substitution.
func validateKeyPair(a *metadata.Association, in Input) (oldKey, newKey int64, errs FieldErrors) {
	errs = FieldErrors{}
	read := func(name string) int64 {
		raw, presence := in.Lookup(name)
		if presence != Present || isEmptyString(raw) {
			errs.add(name, fmt.Sprintf(msgRequired, attribute(name)))
			return 0
		}
		v, ok := toInteger(raw)
		if !ok {
			errs.add(name, fmt.Sprintf(msgInteger, attribute(name)))
		}
		return v
	}
	oldKey = read(a.OldParam())
	newKey = read(a.NewParam())
	if len(errs) > 0 {
		return 0, 0, errs
	}
	return oldKey, newKey, nil
}

// coerceField converts a present, non-null value to the field's storage
// type and applies its validator rules. It returns a message on failure.
func coerceField(f *metadata.Field, raw any) (any, string) {
	name := attribute(f.Name)

	var v any
	switch f.Type {
	case metadata.TypeInteger:
		n, ok := toInteger(raw)
		if !ok {
			return nil, fmt.Sprintf(msgInteger, name)
		}
		v = n
	case metadata.TypeNumeric:
		n, ok := toNumeric(raw)
		if !ok {
			return nil, fmt.Sprintf(msgNumeric, name)
		}
		v = n
	case metadata.TypeBoolean:
		b, ok := toBoolean(raw)
		if !ok {
			return nil, fmt.Sprintf(msgBoolean, name)
		}
		v = b
	case metadata.TypeText:
		s, ok := toText(raw)
		if !ok {
			return nil, fmt.Sprintf(msgString, name)
		}
		v = s
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Sprintf(msgString, name)
		}
		v = s
	}

	if rules := f.Rules(); rules != "" {
		if err := fieldValidator().Var(v, rules); err != nil {
			return nil, ruleMessage(f, err)
		}
	}
	return v, ""
}

func ruleMessage(f *metadata.Field, err error) string {
	name := attribute(f.Name)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Sprintf(msgInvalid, name)
	}
	switch verrs[0].Tag() {
	case "alphanum":
		return fmt.Sprintf(msgAlphaNum, name)
	case "email":
		return fmt.Sprintf(msgEmail, name)
	case "max":
		return fmt.Sprintf(msgMax, name, f.MaxLength)
	default:
		return fmt.Sprintf(msgInvalid, name)
	}
}

func isEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func toInteger(v any) (int64, bool) {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, true
		}
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInteger(f)
	case float64:
		return floatToInteger(val)
	case int64:
		return val, true
	case int:
		return int64(val), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// floatToInteger accepts whole floats within the int64 range.
func floatToInteger(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toNumeric(v any) (float64, bool) {
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case float64:
		return val, true
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

func toBoolean(v any) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case json.Number:
		switch val.String() {
		case "0":
			return false, true
		case "1":
			return true, true
		}
	case float64:
		switch val {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	case string:
		switch val {
		case "0":
			return false, true
		case "1":
			return true, true
		}
	}
	return false, false
}

func toText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		if val {
			return "1", true
		}
		return "0", true
	}
	return "", false
}
