package checks

import (
	"context"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"webqa-probe/internal/harness"
	"webqa-probe/internal/observe"
	"webqa-probe/internal/target"
)

// checkAction executes one check per tick. Failed assertions are judged
// outcomes (ok=false with a reason), never retried; only transport-level
// failures bubble up as transient errors.
type checkAction struct {
	check  Check
	client *target.Client
	schema *jsonschema.Schema
}

// NewAction binds a check to a client session. Schema compilation happens
// here so a broken schema file surfaces before the run starts.
func NewAction(client *target.Client, check Check) (harness.Action, error) {
	if err := check.Validate(); err != nil {
		return nil, err
	}
	var schema *jsonschema.Schema
	if check.SchemaFile != "" {
		var err error
		if schema, err = compileSchema(check.SchemaFile); err != nil {
			return nil, err
		}
	}
	return &checkAction{check: check, client: client, schema: schema}, nil
}

// Actions binds a whole checklist.
func Actions(client *target.Client, list []Check) ([]harness.Action, error) {
	actions := make([]harness.Action, 0, len(list))
	for _, c := range list {
		act, err := NewAction(client, c)
		if err != nil {
			return nil, err
		}
		actions = append(actions, act)
	}
	return actions, nil
}

func (a *checkAction) Name() string { return a.check.Name }

func (a *checkAction) Execute(ctx context.Context) (observe.Fields, error) {
	url, err := a.client.Resolve(a.check.Path)
	if err != nil {
		return nil, err
	}
	var payload []byte
	if a.check.Body != "" {
		payload = []byte(a.check.Body)
	}
	rec, body, err := a.client.DoJSON(ctx, a.check.Method, url, payload)
	if err != nil {
		return nil, err
	}

	failures := a.check.judge(rec.Status, body, a.schema)
	fields := observe.Fields{
		"status_code":   float64(rec.Status),
		"response_time": rec.Duration.Seconds(),
		"ok":            len(failures) == 0,
	}
	if len(failures) > 0 {
		fields["failure"] = strings.Join(failures, "; ")
	}
	return fields, nil
}
