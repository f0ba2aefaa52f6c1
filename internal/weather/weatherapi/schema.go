package weatherapi

import (
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// currentSchemaJSON describes the parts of current.json this client reads.
// Unknown fields are allowed; location and current must be objects.
const currentSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["location", "current"],
  "properties": {
    "location": {
      "type": "object",
      "properties": {
        "name":      {"type": ["string", "null"]},
        "region":    {"type": ["string", "null"]},
        "country":   {"type": ["string", "null"]},
        "lat":       {"type": ["number", "null"]},
        "lon":       {"type": ["number", "null"]},
        "localtime": {"type": ["string", "null"]}
      }
    },
    "current": {
      "type": "object",
      "properties": {
        "temp_c":      {"type": ["number", "null"]},
        "humidity":    {"type": ["number", "null"]},
        "wind_kph":    {"type": ["number", "null"]},
        "cloud":       {"type": ["number", "null"]},
        "air_quality": {"type": ["object", "null"]}
      }
    }
  }
}`

var currentSchema = jsonschema.MustCompileString("current.json", currentSchemaJSON)
