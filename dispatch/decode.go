package dispatch

import "github.com/tidwall/gjson"

// DecodeReply extracts the reply text from a webhook body. Shapes are tried
// in order: array whose first element has "output", object with "message",
// object with "output", bare JSON string. Anything else is returned as-is.
func DecodeReply(body []byte) string {
	raw := string(body)
	if !gjson.ValidBytes(body) {
		return raw
	}

	res := gjson.ParseBytes(body)
	switch {
	case res.IsArray():
		if out, ok := stringField(res, "0.output"); ok {
			return out
		}
	case res.IsObject():
		if msg, ok := stringField(res, "message"); ok {
			return msg
		}
		if out, ok := stringField(res, "output"); ok {
			return out
		}
	case res.Type == gjson.String:
		return res.Str
	}
	return raw
}

// stringField matches path only when it holds a non-empty string.
func stringField(res gjson.Result, path string) (string, bool) {
	v := res.Get(path)
	if v.Type != gjson.String || v.Str == "" {
		return "", false
	}
	return v.Str, true
}
