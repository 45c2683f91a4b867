package sc

// Filter is a single analysis filter expression: a (field, operator, value)
// triple combined with a data type to form a query document.
type Filter struct {
	Field    string
	Operator string
	Value    string
}

// Query is a structured analysis query document in the shape SecurityCenter
// expects.
type Query map[string]interface{}

// Filter dialects understood by the analysis engine.
const (
	DataTypeLCE    = "lce"
	DataTypeTicket = "ticket"
	DataTypeUser   = "user"
	DataTypeVuln   = "vuln"
)

var dataTypes = []string{DataTypeLCE, DataTypeTicket, DataTypeUser, DataTypeVuln}

// buildQuery assembles a query document from filter expressions. The data
// type selects the filter dialect and defaults to vuln when empty.
func buildQuery(dataType string, filters []Filter) (Query, error) {
	if dataType == "" {
		dataType = DataTypeVuln
	}
	dt, err := checkChoice("data_type", dataType, dataTypes...)
	if err != nil {
		return nil, err
	}

	fl := make([]interface{}, 0, len(filters))
	for _, f := range filters {
		name, err := checkNotEmpty("filter field", f.Field)
		if err != nil {
			return nil, err
		}
		fl = append(fl, map[string]interface{}{
			"filterName": name,
			"operator":   f.Operator,
			"value":      f.Value,
		})
	}

	return Query{
		"type":    dt,
		"filters": fl,
	}, nil
}
