package weather

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ValidationMessage is shown to the user when the location field is blank.
const ValidationMessage = "Please enter a valid location."

// Weather errors.
var (
	// ErrValidation is returned when a query has no usable location.
	ErrValidation = errors.New("location is required")
)

// FetchError is returned when the weather API answers with a non-success
// status, or cannot be reached at all (StatusCode is 0 in that case).
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("fetching weather: %v", e.Err)
	}
	return fmt.Sprintf("HTTP error! Status: %d", e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is returned when the weather API body is not the expected JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing weather response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// AqiChoice is the raw value of the form's air quality selector.
type AqiChoice string

const (
	AqiYes AqiChoice = "yes"
	AqiNo  AqiChoice = "no"
)

// Includes reports whether air quality data was requested. Only the exact
// value "yes" opts in.
func (c AqiChoice) Includes() bool {
	return c == AqiYes
}

// Query is one form submission.
type Query struct {
	City string
	AQI  AqiChoice
}

// Raw is the weatherapi.com current.json response. Values are pointers so a
// missing field can be told apart from a zero reading.
type Raw struct {
	Location *RawLocation `json:"location"`
	Current  *RawCurrent  `json:"current"`
}

// RawLocation is the "location" object of a current.json response.
type RawLocation struct {
	Name      *string  `json:"name"`
	Region    *string  `json:"region"`
	Country   *string  `json:"country"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	LocalTime *string  `json:"localtime"`
}

// RawCurrent is the "current" object of a current.json response.
type RawCurrent struct {
	TempC      *float64    `json:"temp_c"`
	Humidity   *float64    `json:"humidity"`
	WindKph    *float64    `json:"wind_kph"`
	Cloud      *float64    `json:"cloud"`
	AirQuality *AirQuality `json:"air_quality,omitempty"`
}

// RainLikelihood is the outcome of the rain heuristic.
type RainLikelihood string

const (
	RainHigh RainLikelihood = "High"
	RainLow  RainLikelihood = "Low"
)

// Info is the display-ready weather record.
type Info struct {
	Location *string        `json:"location"`
	Region   *string        `json:"region"`
	Country  *string        `json:"country"`
	Lat      *float64       `json:"lat"`
	Lon      *float64       `json:"lon"`
	Time     *string        `json:"time"`
	TempC    *float64       `json:"temp_c"`
	Humidity *float64       `json:"humidity"`
	WindKph  *float64       `json:"wind_kph"`
	Cloud    *float64       `json:"cloud"`
	RainProb RainLikelihood `json:"rain_prob"`
}

// Lookup returns the value stored under a field key. The boolean is false
// when Info has no such field.
func (i Info) Lookup(key string) (any, bool) {
	switch key {
	case "location":
		return i.Location, true
	case "region":
		return i.Region, true
	case "country":
		return i.Country, true
	case "lat":
		return i.Lat, true
	case "lon":
		return i.Lon, true
	case "time":
		return i.Time, true
	case "temp_c":
		return i.TempC, true
	case "humidity":
		return i.Humidity, true
	case "wind_kph":
		return i.WindKph, true
	case "cloud":
		return i.Cloud, true
	case "rain_prob":
		return string(i.RainProb), true
	default:
		return nil, false
	}
}

// airQualityField is one pollutant entry, kept exactly as received.
type airQualityField struct {
	Key   string
	Value json.RawMessage
}

// AirQuality is the pass-through air_quality object. Keys and values are
// kept in the order the API sent them.
type AirQuality struct {
	fields []airQualityField
}

// Lookup returns the raw value for a pollutant key.
func (a *AirQuality) Lookup(key string) (any, bool) {
	if a == nil {
		return nil, false
	}
	for _, f := range a.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Values returns the raw values in API order.
func (a *AirQuality) Values() []any {
	if a == nil {
		return nil
	}
	values := make([]any, len(a.fields))
	for i, f := range a.fields {
		values[i] = f.Value
	}
	return values
}

// UnmarshalJSON decodes an object while preserving key order.
func (a *AirQuality) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("air_quality: expected object, got %v", tok)
	}

	var fields []airQualityField
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("air_quality: unexpected key %v", keyTok)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("air_quality %q: %w", key, err)
		}
		fields = append(fields, airQualityField{Key: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	a.fields = fields
	return nil
}

// MarshalJSON encodes the object with its original key order.
func (a *AirQuality) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range a.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
		} else {
			buf.Write(f.Value)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DisplayResult is everything rendered for one query. AirQuality is nil
// when it was not requested or the API did not return it.
type DisplayResult struct {
	Info       Info        `json:"info"`
	AirQuality *AirQuality `json:"aqiInfo,omitempty"`
}
