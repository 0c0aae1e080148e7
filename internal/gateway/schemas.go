package gateway

import "henry-gateway/internal/common/validation"

// Request-body schemas for the gateway's own surface. Upstream responses are
// never validated; their fields are read defensively at the call sites.

var createSessionSchema = validation.MustValidator(`{
	"type": "object",
	"required": ["page", "instanceKey"],
	"properties": {
		"page":        {"type": "string", "minLength": 1},
		"instanceKey": {"type": "string", "minLength": 1},
		"newSession":  {"type": "boolean"}
	},
	"additionalProperties": false
}`)

var messageSchema = validation.MustValidator(`{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message": {"type": "string", "minLength": 1, "maxLength": 4000}
	},
	"additionalProperties": false
}`)

var welcomeAckSchema = validation.MustValidator(`{
	"type": "object",
	"required": ["action"],
	"properties": {
		"action": {"type": "string", "enum": ["primary", "secondary"]}
	},
	"additionalProperties": false
}`)

var strengthenSchema = validation.MustValidator(`{
	"type": "object"
}`)

var adminReplySchema = validation.MustValidator(`{
	"type": "object",
	"required": ["message"],
	"properties": {
		"message": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`)
