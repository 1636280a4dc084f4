package reconcile

import (
	"encoding/json"
	"strconv"
)

// Number holds a derived numbering field. The cascade extracts these as
// text; values that parse as plain integers marshal as JSON numbers,
// anything else stays a string.
type Number string

// Int reports the value as an integer when the field is fully numeric.
func (n Number) Int() (int, bool) {
	v, err := strconv.Atoi(string(n))
	if err != nil {
		return 0, false
	}
	return v, true
}

func (n Number) String() string {
	return string(n)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if v, ok := n.Int(); ok {
		return []byte(strconv.Itoa(v)), nil
	}
	return json.Marshal(string(n))
}

func (n *Number) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	var v json.Number
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number(v.String())
	return nil
}
