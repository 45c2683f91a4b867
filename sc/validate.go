package sc

// Field checks shared by the document builders. Every helper returns a
// *ValidationError naming the field and the offending value so a bad
// parameter aborts before any request is sent.

func checkNotEmpty(field, value string) (string, error) {
	if value == "" {
		return "", &ValidationError{Field: field, Value: "\"\""}
	}
	return value, nil
}

func checkChoice(field, value string, choices ...string) (string, error) {
	for _, c := range choices {
		if value == c {
			return value, nil
		}
	}
	return "", &ValidationError{Field: field, Value: value, Choices: choices}
}

func checkID(field string, id int) (int, error) {
	if id <= 0 {
		return 0, &ValidationError{Field: field, Value: id}
	}
	return id, nil
}

// checkActions validates the action list structurally only: each entry must
// be a non-empty document. The action-type specific shape is left to the
// server.
func checkActions(field string, actions []Action) ([]Action, error) {
	for _, a := range actions {
		if len(a) == 0 {
			return nil, &ValidationError{Field: field, Value: a}
		}
	}
	return actions, nil
}
