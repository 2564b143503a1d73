// Package validation checks tool arguments against the tool contracts
// before any upstream call is made.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/moodlemcp/toolerr"
	"github.com/effective-security/moodlemcp/tools"
	"github.com/effective-security/xlog"
	"github.com/go-playground/validator/v10"
	jsv "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/moodlemcp", "validation")

// Result of the validation.
// Params never carries the token, it is returned separately.
type Result struct {
	Valid bool
	Tool  *tools.Definition
	Token string
	// Params is a pointer to the tool's ParamsType
	Params any
	Err    *toolerr.Error
}

// Issue is a failed check of a field
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string {
	return i.Path + ": " + i.Message
}

// Validator validates tool arguments, it is safe for concurrent use
type Validator struct {
	registry *tools.Registry
	schemas  map[string]*jsv.Schema
	validate *validator.Validate
	printer  *message.Printer
}

// New returns a validator for the tools of the registry
func New(registry *tools.Registry) (*Validator, error) {
	v := &Validator{
		registry: registry,
		schemas:  make(map[string]*jsv.Schema),
		validate: newStructValidator(),
		printer:  message.NewPrinter(language.English),
	}

	c := jsv.NewCompiler()
	for _, d := range registry.ListTools() {
		doc, err := jsv.UnmarshalJSON(bytes.NewReader(d.InputSchema))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid input schema of %s", d.Name)
		}
		loc := d.Name + ".json"
		if err = c.AddResource(loc, doc); err != nil {
			return nil, errors.Wrapf(err, "failed to add schema of %s", d.Name)
		}
		sch, err := c.Compile(loc)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to compile schema of %s", d.Name)
		}
		v.schemas[d.Name] = sch
	}
	return v, nil
}

// Validate returns the validated parameters of the tool
func (v *Validator) Validate(toolName string, raw map[string]any) *Result {
	d, ok := v.registry.Get(toolName)
	if !ok {
		return &Result{Err: toolerr.UnknownTool(toolName)}
	}

	res := &Result{Tool: d}
	var issues issueList

	token, ok := raw[tools.TokenField].(string)
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		issues.add(tools.TokenField, "is required and must be a non-empty string")
	}

	if d.ActivityReference {
		for _, is := range checkActivityUnion(raw) {
			issues.add(is.Path, is.Message)
		}
	}

	issues.merge(v.checkSchema(d.Name, raw))
	if len(issues) > 0 {
		return v.fail(res, issues)
	}

	params, err := decodeParams(d, raw)
	if err != nil {
		issues.add("arguments", err.Error())
		return v.fail(res, issues)
	}

	if err = v.validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			issues.add("arguments", err.Error())
			return v.fail(res, issues)
		}
		for _, fe := range verrs {
			issues.add(fe.Field(), tagMessage(fe.Tag()))
		}
		return v.fail(res, issues)
	}

	if n, ok := params.(interface{ Normalize() }); ok {
		n.Normalize()
	}

	res.Valid = true
	res.Token = token
	res.Params = params
	return res
}

func (v *Validator) fail(res *Result, issues issueList) *Result {
	res.Err = toolerr.InvalidParams("%s", issues.String())
	logger.KV(xlog.DEBUG,
		"tool", res.Tool.Name,
		"reason", "invalid_params",
		"issues", issues.String(),
	)
	return res
}

// checkActivityUnion requires exactly one of
// activity_id or course_id with activity_name.
func checkActivityUnion(raw map[string]any) []Issue {
	hasID := present(raw, "activity_id")
	hasCourse := present(raw, "course_id")
	hasName := present(raw, "activity_name")

	switch {
	case hasID && (hasCourse || hasName):
		return []Issue{{"activity_id", "provide either activity_id, or course_id with activity_name, not both"}}
	case !hasID && !hasCourse && !hasName:
		return []Issue{{"activity_id", "either activity_id, or course_id with activity_name is required"}}
	case !hasID && !hasName:
		return []Issue{{"activity_name", "is required with course_id"}}
	case !hasID && !hasCourse:
		return []Issue{{"course_id", "is required with activity_name"}}
	}
	return nil
}

func present(raw map[string]any, key string) bool {
	v, ok := raw[key]
	return ok && v != nil
}

// checkSchema validates the arguments against the advertised input schema.
// The union is reported by checkActivityUnion, so root oneOf failures are skipped.
func (v *Validator) checkSchema(toolName string, raw map[string]any) []Issue {
	sch := v.schemas[toolName]
	if sch == nil {
		return nil
	}

	// null is treated as an absent argument
	args := make(map[string]any, len(raw))
	for k, val := range raw {
		if val != nil {
			args[k] = val
		}
	}
	js, err := json.Marshal(args)
	if err != nil {
		return []Issue{{"arguments", "must be a JSON object"}}
	}
	inst, err := jsv.UnmarshalJSON(bytes.NewReader(js))
	if err != nil {
		return []Issue{{"arguments", "must be a JSON object"}}
	}

	err = sch.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsv.ValidationError
	if !errors.As(err, &ve) {
		return []Issue{{"arguments", err.Error()}}
	}

	var issues []Issue
	v.collect(ve, &issues)
	return issues
}

func (v *Validator) collect(ve *jsv.ValidationError, issues *[]Issue) {
	if _, ok := ve.ErrorKind.(*kind.OneOf); ok && len(ve.InstanceLocation) == 0 {
		return
	}
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			v.collect(c, issues)
		}
		return
	}

	path := strings.Join(ve.InstanceLocation, ".")
	if req, ok := ve.ErrorKind.(*kind.Required); ok {
		for _, m := range req.Missing {
			*issues = append(*issues, Issue{joinPath(path, m), "is required"})
		}
		return
	}
	if path == "" {
		path = "arguments"
	}
	*issues = append(*issues, Issue{path, ve.ErrorKind.LocalizedString(v.printer)})
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// decodeParams decodes the domain arguments, without the token,
// into a new value of the tool's ParamsType.
func decodeParams(d *tools.Definition, raw map[string]any) (any, error) {
	domain := make(map[string]any)
	for _, name := range d.ParamNames() {
		if val, ok := raw[name]; ok && val != nil {
			domain[name] = val
		}
	}
	js, err := json.Marshal(domain)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	params := d.NewParams()
	if err = ljson.Unmarshal(js, params); err != nil {
		return nil, errors.Errorf("failed to decode: %s", err.Error())
	}
	return params, nil
}

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "gt":
		return "must be a positive integer"
	case "url":
		return "must be a well-formed URL"
	case "notblank":
		return "must not be blank"
	default:
		return fmt.Sprintf("failed on %s check", tag)
	}
}

// issueList keeps one issue per path, ordered by path
type issueList []Issue

func (l *issueList) add(path, msg string) {
	for _, is := range *l {
		if is.Path == path {
			return
		}
	}
	*l = append(*l, Issue{Path: path, Message: msg})
}

func (l *issueList) merge(list []Issue) {
	for _, is := range list {
		l.add(is.Path, is.Message)
	}
}

func (l issueList) String() string {
	sorted := make([]Issue, len(l))
	copy(sorted, l)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Path < sorted[j].Path
	})
	parts := make([]string, len(sorted))
	for i, is := range sorted {
		parts[i] = is.String()
	}
	return strings.Join(parts, "; ")
}
