package tasks

import "context"

// Doctor composes build, verify, and audit in sequence according to its
// sub-step toggles (`runBuild`, `runVerify`, `runAudit`, each defaulting to
// true), aggregating their details under one step result.
func Doctor(ctx context.Context, req Request) (Outcome, error) {
	details := map[string]any{}
	var outputs []string
	errorCount, warningCount := 0, 0

	if boolOpt(req.Raw, "runBuild", true) {
		out, err := Build(ctx, req)
		if err != nil {
			return Outcome{}, err
		}
		details["build"] = out.Details
		outputs = append(outputs, out.Outputs...)
	}

	if boolOpt(req.Raw, "runVerify", true) {
		out, err := Verify(ctx, req)
		if err != nil {
			return Outcome{}, err
		}
		details["verify"] = out.Details
		if wc, ok := out.Details["warningCount"].(int); ok {
			warningCount += wc
		}
	}

	if boolOpt(req.Raw, "runAudit", true) {
		out, err := Audit(ctx, req)
		if err != nil {
			return Outcome{}, err
		}
		details["audit"] = out.Details
		outputs = append(outputs, out.Outputs...)
		if ec, ok := out.Details["errorCount"].(int); ok {
			errorCount += ec
		}
		if wc, ok := out.Details["warningCount"].(int); ok {
			warningCount += wc
		}
	}

	details["errorCount"] = errorCount
	details["warningCount"] = warningCount

	return Outcome{Success: true, Outputs: outputs, Details: details}, nil
}
