// cvar/cvar.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package cvar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fbogfx/fbogfx/log"
	"github.com/fbogfx/fbogfx/util"

	"github.com/iancoleman/orderedmap"
)

var (
	ErrUnknownCVar       = errors.New("unknown cvar")
	ErrDuplicateCVar     = errors.New("cvar already registered")
	ErrReadOnly          = errors.New("cvar is read-only")
	ErrProtected         = errors.New("cvar may only be set at startup")
	ErrDenied            = errors.New("value rejected by validator")
	ErrInvalidValue      = errors.New("invalid value")
	ErrUnsupportedFormat = errors.New("unsupported config file format")
)

// Outcome is returned by a Validator to say what Set should do with a
// proposed value.
type Outcome int

const (
	// Deny rejects the value; the cvar is left unchanged.
	Deny Outcome = iota
	// Accept stores the value as given.
	Accept
	// AcceptHandled means the validator has already stored a (possibly
	// adjusted) value via CVar.Store.
	AcceptHandled
)

func (o Outcome) String() string {
	switch o {
	case Deny:
		return "deny"
	case Accept:
		return "accept"
	case AcceptHandled:
		return "accept-handled"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

type Validator func(cv *CVar, value string) Outcome

type Flag uint8

const (
	Integer Flag = iota
	Float
	Boolean
	String
	ReadOnly
	Saveable
	// Protected vars may be set from code and at startup but not from
	// the console or a watched config file.
	Protected
)

var flagNames = []string{"integer", "float", "boolean", "string", "readonly", "saveable", "protected"}

type Flags = util.Flags[Flag]

func MakeFlags(f ...Flag) Flags {
	return util.MakeFlags(f...)
}

type CVar struct {
	Name      string
	Default   string
	Help      string
	Flags     Flags
	Validator Validator

	value string
}

func (cv *CVar) Value() string {
	return cv.value
}

// Store sets the value without validation. It is intended for validators
// that return AcceptHandled.
func (cv *CVar) Store(v string) {
	cv.value = v
}

func (cv *CVar) Modified() bool {
	return cv.value != cv.Default
}

func (cv *CVar) Int() int {
	v, _ := strconv.Atoi(cv.value)
	return v
}

func (cv *CVar) Float() float64 {
	v, _ := strconv.ParseFloat(cv.value, 64)
	return v
}

func (cv *CVar) Bool() bool {
	v, _ := parseBool(cv.value)
	return v
}

func (cv *CVar) String() string {
	return fmt.Sprintf("%s = %q [%s]", cv.Name, cv.value, cv.Flags.Format(flagNames))
}

// typed returns the value as the Go type used when saving it to a file.
func (cv *CVar) typed() any {
	switch {
	case cv.Flags.Has(Integer):
		return int64(cv.Int())
	case cv.Flags.Has(Float):
		return cv.Float()
	case cv.Flags.Has(Boolean):
		return cv.Bool()
	default:
		return cv.value
	}
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// normalize checks value against the cvar's type flags and returns it in
// canonical form.
func (cv *CVar) normalize(value string) (string, error) {
	value = strings.TrimSpace(value)
	switch {
	case cv.Flags.Has(Integer):
		v, err := strconv.Atoi(value)
		if err != nil {
			return "", fmt.Errorf("%s: %q: %w", cv.Name, value, ErrInvalidValue)
		}
		return strconv.Itoa(v), nil
	case cv.Flags.Has(Float):
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "", fmt.Errorf("%s: %q: %w", cv.Name, value, ErrInvalidValue)
		}
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case cv.Flags.Has(Boolean):
		v, err := parseBool(value)
		if err != nil {
			return "", fmt.Errorf("%s: %q: %w", cv.Name, value, ErrInvalidValue)
		}
		return strconv.FormatBool(v), nil
	default:
		return value, nil
	}
}

///////////////////////////////////////////////////////////////////////////
// Registry

// Registry holds the cvars in registration order. It is not safe for
// concurrent use; config file changes are delivered on a channel by Watch
// and applied by the thread that owns the registry.
type Registry struct {
	vars     *orderedmap.OrderedMap
	onChange []func(*CVar)
	lg       *log.Logger
}

func NewRegistry(lg *log.Logger) *Registry {
	return &Registry{
		vars: orderedmap.New(),
		lg:   lg,
	}
}

// Register adds cv to the registry with its value set to the default. The
// default must pass the type check; validators are not run on it.
func (r *Registry) Register(cv CVar) (*CVar, error) {
	if _, ok := r.vars.Get(cv.Name); ok {
		return nil, fmt.Errorf("%s: %w", cv.Name, ErrDuplicateCVar)
	}
	if !cv.Flags.HasAny(Integer, Float, Boolean, String) {
		cv.Flags = cv.Flags.Set(String)
	}
	def, err := cv.normalize(cv.Default)
	if err != nil {
		return nil, err
	}
	cv.Default = def
	cv.value = def

	p := &cv
	r.vars.Set(cv.Name, p)
	return p, nil
}

// MustRegister is Register for the fixed engine cvars, where a failure is
// a programming error.
func (r *Registry) MustRegister(cv CVar) *CVar {
	p, err := r.Register(cv)
	if err != nil {
		panic(err)
	}
	return p
}

// OnChange adds a callback that is run after a cvar's value changes.
func (r *Registry) OnChange(fn func(*CVar)) {
	r.onChange = append(r.onChange, fn)
}

func (r *Registry) Lookup(name string) (*CVar, bool) {
	v, ok := r.vars.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*CVar), true
}

func (r *Registry) Get(name string) (string, error) {
	cv, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrUnknownCVar)
	}
	return cv.value, nil
}

// Set checks the type flags, then read-only, then runs the validator.
func (r *Registry) Set(name, value string) error {
	return r.set(name, value, false)
}

// SetUser is Set for values that come from the console or a watched
// config file; protected cvars are refused.
func (r *Registry) SetUser(name, value string) error {
	return r.set(name, value, true)
}

func (r *Registry) set(name, value string, user bool) error {
	cv, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownCVar)
	}

	v, err := cv.normalize(value)
	if err != nil {
		return err
	}
	if cv.Flags.Has(ReadOnly) {
		return fmt.Errorf("%s: %w", name, ErrReadOnly)
	}
	if user && cv.Flags.Has(Protected) {
		return fmt.Errorf("%s: %w", name, ErrProtected)
	}

	prev := cv.value
	outcome := Accept
	if cv.Validator != nil {
		outcome = cv.Validator(cv, v)
	}
	switch outcome {
	case Deny:
		return fmt.Errorf("%s: %q: %w", name, value, ErrDenied)
	case Accept:
		cv.value = v
	case AcceptHandled:
	}

	if cv.value != prev {
		r.lg.Debug("cvar changed", "name", name, "from", prev, "to", cv.value)
		for _, fn := range r.onChange {
			fn(cv)
		}
	}
	return nil
}

// Reset restores the default value, bypassing the validator.
func (r *Registry) Reset(name string) error {
	cv, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownCVar)
	}
	if cv.value != cv.Default {
		cv.value = cv.Default
		for _, fn := range r.onChange {
			fn(cv)
		}
	}
	return nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return r.vars.Keys()
}

// The typed accessors return the zero value for unknown cvars.

func (r *Registry) Int(name string) int {
	if cv, ok := r.Lookup(name); ok {
		return cv.Int()
	}
	return 0
}

func (r *Registry) Float(name string) float64 {
	if cv, ok := r.Lookup(name); ok {
		return cv.Float()
	}
	return 0
}

func (r *Registry) Bool(name string) bool {
	if cv, ok := r.Lookup(name); ok {
		return cv.Bool()
	}
	return false
}

func (r *Registry) String(name string) string {
	if cv, ok := r.Lookup(name); ok {
		return cv.value
	}
	return ""
}

// Apply sets each of the given values, collecting all of the errors
// rather than stopping at the first one.
func (r *Registry) Apply(values map[string]string, user bool) error {
	var e util.ErrorLogger
	// Apply in registration order so that OnChange callbacks see a
	// deterministic sequence.
	for _, name := range r.Names() {
		if v, ok := values[name]; ok {
			if err := r.set(name, v, user); err != nil {
				e.Error(err)
			}
		}
	}
	for _, name := range util.SortedMapKeys(values) {
		if _, ok := r.Lookup(name); !ok {
			e.Error(fmt.Errorf("%s: %w", name, ErrUnknownCVar))
		}
	}
	if e.HaveErrors() {
		e.PrintErrors(r.lg)
	}
	return e.Err()
}
