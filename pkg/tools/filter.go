package tools

// FilterAllowed returns kind if it is in allowed, and ToolKindNone
// otherwise. An empty allowed list permits every kind. ToolKindNone is
// always permitted.
func FilterAllowed(kind ToolKind, allowed []ToolKind) ToolKind {
	if len(allowed) == 0 || kind == ToolKindNone {
		return kind
	}
	for _, k := range allowed {
		if k == kind {
			return kind
		}
	}
	return ToolKindNone
}
