package widgets

// ApplyDefaults returns props with every schema default filled in for keys the instance
// does not set. The input map is not modified.
func ApplyDefaults(schema map[string]PropSpec, props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(schema)+len(props))
	for name, spec := range schema {
		if spec.Default != nil {
			out[name] = spec.Default
		}
	}
	for k, v := range props {
		out[k] = v
	}
	return out
}
