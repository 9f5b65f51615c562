package filters

// Params represents codec parameters, usually taken from a stream's
// DecodeParms dictionary. Common parameters include Predictor, Columns,
// Colors and BitsPerComponent; the encryption codecs take Key, KeySize and
// IV as raw bytes.
type Params map[string]interface{}

// getIntParam extracts an integer parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to an integer.
func getIntParam(params Params, key string, defaultValue int) int {
	if params == nil {
		return defaultValue
	}

	obj, ok := params[key]
	if !ok {
		return defaultValue
	}

	switch v := obj.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	default:
		return defaultValue
	}
}

// getBoolParam extracts a boolean parameter from Params, returning defaultValue
// if the parameter is missing or cannot be converted to a boolean.
func getBoolParam(params Params, key string, defaultValue bool) bool {
	if params == nil {
		return defaultValue
	}

	obj, ok := params[key]
	if !ok {
		return defaultValue
	}

	switch v := obj.(type) {
	case bool:
		return v
	default:
		return defaultValue
	}
}

// getBytesParam extracts a byte-string parameter. Strings are accepted as
// raw bytes.
func getBytesParam(params Params, key string) ([]byte, bool) {
	if params == nil {
		return nil, false
	}

	switch v := params[key].(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}

// keyParam returns the Key parameter truncated to KeySize when KeySize is
// present.
func keyParam(params Params) ([]byte, bool) {
	key, ok := getBytesParam(params, "Key")
	if !ok {
		return nil, false
	}
	size := getIntParam(params, "KeySize", len(key))
	if size < 0 || size > len(key) {
		return nil, false
	}
	return key[:size], true
}
