package sc

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Record is a raw SecurityCenter resource document. Responses are passed
// through largely unwrapped; with a fields projection only the requested
// keys are present.
type Record map[string]interface{}

// Action describes one thing an alert does when it fires (email,
// notification, report, scan, syslog or ticket). Only the overall structure
// is checked client-side; the type-specific shape is validated by the
// server.
type Action map[string]interface{}

// Trigger is the condition that determines whether an alert fires, e.g.
// {"sumip", ">=", "100"}.
type Trigger struct {
	Name     string `json:"name"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Comparison operators accepted in a trigger.
var triggerOperators = []string{">=", "<=", "=", "!="}

// Schedule is the timing policy governing when an alert's query is
// evaluated. Type is one of dependent, ical, never, rollover or template.
// Start (an iCal date-time) and RepeatRule (an iCal recurrence rule) apply
// to the ical type only and must both be set for it.
type Schedule struct {
	Type       string `json:"type"`
	Start      string `json:"start,omitempty"`
	RepeatRule string `json:"repeat_rule,omitempty"`
}

var scheduleTypes = []string{"dependent", "never", "rollover", "template"}

// AlertOptions is the full option surface for creating or updating an
// alert. Zero values mean "not set"; on update, unset options leave the
// server-side value untouched.
type AlertOptions struct {
	// Name and Description pass through to the alert document unchanged.
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`

	// DataType selects the filter dialect for any filter expressions
	// supplied alongside the options (lce, ticket, user or vuln). It
	// defaults to vuln and is consumed by the query builder, never sent
	// on the wire.
	DataType string `json:"data_type,omitempty"`

	// Query sets the analysis query document directly. It takes
	// precedence over a query built from filter expressions.
	Query Query `json:"query,omitempty"`

	Trigger  *Trigger  `json:"trigger,omitempty"`
	Schedule *Schedule `json:"schedule,omitempty"`

	// AlwaysExecOnTrigger controls whether the actions run every time the
	// trigger fires, or only when the returned data changes.
	AlwaysExecOnTrigger *bool `json:"always_exec_on_trigger,omitempty"`

	// Actions is passed through after a structural check only.
	Actions []Action `json:"action,omitempty"`

	// Extra carries any request fields not modeled above. Keys already
	// produced by the normalizer are not overwritten.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// AlertAPI surfaces the SecurityCenter alert endpoints. Alerts live
// server-side only; the API holds no state besides the client.
type AlertAPI struct {
	client *Client
}

// The alert document is assembled by a fixed-order pipeline of steps. Each
// step owns the wire keys it writes and never re-reads another step's
// input, so the steps stay independently testable. Order matters: an
// explicitly supplied query must land after the filter-built one, and the
// extras merge must come last so it cannot clobber normalized keys.
var alertDocSteps = []func(doc Record, opts AlertOptions, filters []Filter) error{
	stepFilterQuery,
	stepName,
	stepDescription,
	stepExplicitQuery,
	stepAlwaysExec,
	stepTrigger,
	stepSchedule,
	stepActions,
	stepExtra,
}

// buildAlertDoc normalizes the caller-supplied options and filter
// expressions into the flat document shape the alert endpoints expect.
func buildAlertDoc(opts AlertOptions, filters []Filter) (Record, error) {
	doc := Record{}
	for _, step := range alertDocSteps {
		if err := step(doc, opts, filters); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func stepFilterQuery(doc Record, opts AlertOptions, filters []Filter) error {
	if len(filters) == 0 {
		return nil
	}
	query, err := buildQuery(opts.DataType, filters)
	if err != nil {
		return err
	}
	doc["query"] = query
	return nil
}

func stepName(doc Record, opts AlertOptions, _ []Filter) error {
	if opts.Name != "" {
		doc["name"] = opts.Name
	}
	return nil
}

func stepDescription(doc Record, opts AlertOptions, _ []Filter) error {
	if opts.Description != "" {
		doc["description"] = opts.Description
	}
	return nil
}

func stepExplicitQuery(doc Record, opts AlertOptions, _ []Filter) error {
	if opts.Query != nil {
		doc["query"] = opts.Query
	}
	return nil
}

func stepAlwaysExec(doc Record, opts AlertOptions, _ []Filter) error {
	if opts.AlwaysExecOnTrigger != nil {
		// The server expects a lower-case string literal, not a JSON
		// boolean.
		doc["executeOnEveryTrigger"] = strconv.FormatBool(*opts.AlwaysExecOnTrigger)
	}
	return nil
}

// stepTrigger expands the trigger triple into the three flat wire fields.
func stepTrigger(doc Record, opts AlertOptions, _ []Filter) error {
	t := opts.Trigger
	if t == nil {
		return nil
	}
	name, err := checkNotEmpty("trigger.name", t.Name)
	if err != nil {
		return err
	}
	op, err := checkChoice("trigger.operator", t.Operator, triggerOperators...)
	if err != nil {
		return err
	}
	doc["triggerName"] = name
	doc["triggerOperator"] = op
	doc["triggerValue"] = t.Value
	return nil
}

// stepSchedule collapses the schedule into its nested wire document. A
// complete ical schedule carries start and repeatRule; every other type
// carries the type alone. An ical schedule missing either part falls
// through to the plain branch and fails the choice check, which is the
// established behavior for partial ical input.
func stepSchedule(doc Record, opts AlertOptions, _ []Filter) error {
	s := opts.Schedule
	if s == nil {
		return nil
	}
	if s.Type == "ical" && s.Start != "" && s.RepeatRule != "" {
		doc["schedule"] = map[string]interface{}{
			"type":       "ical",
			"start":      s.Start,
			"repeatRule": s.RepeatRule,
		}
		return nil
	}
	typ, err := checkChoice("schedule.type", s.Type, scheduleTypes...)
	if err != nil {
		return err
	}
	doc["schedule"] = map[string]interface{}{"type": typ}
	return nil
}

func stepActions(doc Record, opts AlertOptions, _ []Filter) error {
	if opts.Actions == nil {
		return nil
	}
	actions, err := checkActions("action", opts.Actions)
	if err != nil {
		return err
	}
	doc["action"] = actions
	return nil
}

func stepExtra(doc Record, opts AlertOptions, _ []Filter) error {
	for k, v := range opts.Extra {
		if _, owned := doc[k]; !owned {
			doc[k] = v
		}
	}
	return nil
}

func fieldsParam(fields []string) url.Values {
	params := url.Values{}
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}
	return params
}

// List retrieves the alerts visible to the current session. The optional
// fields project which attributes are returned for each alert.
func (a *AlertAPI) List(fields ...string) ([]Record, error) {
	var alerts []Record
	if err := a.client.Get("alert", fieldsParam(fields), &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// Details returns a single alert by id, optionally projected to the given
// fields.
func (a *AlertAPI) Details(id int, fields ...string) (Record, error) {
	id, err := checkID("id", id)
	if err != nil {
		return nil, err
	}
	var alert Record
	if err := a.client.Get(fmt.Sprintf("alert/%d", id), fieldsParam(fields), &alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// Create builds an alert document from the options and filter expressions
// and creates it. The returned record includes the server-assigned id.
func (a *AlertAPI) Create(opts AlertOptions, filters ...Filter) (Record, error) {
	doc, err := buildAlertDoc(opts, filters)
	if err != nil {
		return nil, err
	}
	var alert Record
	if err := a.client.Post("alert", doc, &alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// Update overwrites the set fields of an existing alert. Options left at
// their zero value are not touched.
func (a *AlertAPI) Update(id int, opts AlertOptions, filters ...Filter) (Record, error) {
	id, err := checkID("id", id)
	if err != nil {
		return nil, err
	}
	doc, err := buildAlertDoc(opts, filters)
	if err != nil {
		return nil, err
	}
	var alert Record
	if err := a.client.Patch(fmt.Sprintf("alert/%d", id), doc, &alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// Delete removes the alert and returns the server's status response.
func (a *AlertAPI) Delete(id int) (string, error) {
	id, err := checkID("id", id)
	if err != nil {
		return "", err
	}
	var status string
	if err := a.client.Delete(fmt.Sprintf("alert/%d", id), &status); err != nil {
		return "", err
	}
	return status, nil
}

// Execute fires the alert immediately, regardless of its schedule.
func (a *AlertAPI) Execute(id int) (Record, error) {
	id, err := checkID("id", id)
	if err != nil {
		return nil, err
	}
	var alert Record
	if err := a.client.Post(fmt.Sprintf("alert/%d/execute", id), nil, &alert); err != nil {
		return nil, err
	}
	return alert, nil
}
