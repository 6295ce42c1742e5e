package recognize

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Item is one recognised expression returned by the backend.
type Item struct {
	Expr   string
	Result string
	Assign bool
}

// request is the body posted to the backend.
type request struct {
	Image      string            `json:"image"`
	DictOfVars map[string]string `json:"dict_of_vars"`
}

// response is the backend envelope. Data is a pointer so a missing field can
// be told apart from an empty list.
type response struct {
	Message string      `json:"message,omitempty"`
	Status  string      `json:"status,omitempty"`
	Data    *[]wireItem `json:"data"`
}

type wireItem struct {
	Expr   string     `json:"expr"`
	Result scalarText `json:"result"`
	Assign bool       `json:"assign"`
}

// scalarText accepts a JSON string, number or boolean and keeps its text.
type scalarText string

func (s *scalarText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = scalarText(v)
	case '{', '[':
		return fmt.Errorf("result must be a scalar, got %s", b)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err == nil {
			*s = scalarText(n.String())
			return nil
		}
		var v bool
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("result must be a scalar, got %s", b)
		}
		*s = scalarText(fmt.Sprint(v))
	}
	return nil
}
