package weather

// Thresholds for the rain heuristic. All comparisons are strict.
const (
	rainMinHumidity = 70.0
	rainMaxTempC    = 20.0
	rainMaxWindKph  = 15.0
	rainMinCloud    = 50.0
)

// RainProbability applies a fixed four-condition rule to current conditions.
// It is a heuristic, not a forecast: "High" only when the air is humid
// (> 70%), cool (< 20°C), calm (< 15 kph) and overcast (> 50% cloud).
// A missing reading fails its condition.
func RainProbability(tempC, humidity, windKph, cloud *float64) RainLikelihood {
	if humidity == nil || tempC == nil || windKph == nil || cloud == nil {
		return RainLow
	}
	if *humidity > rainMinHumidity &&
		*tempC < rainMaxTempC &&
		*windKph < rainMaxWindKph &&
		*cloud > rainMinCloud {
		return RainHigh
	}
	return RainLow
}

// Transform maps a raw API response into the display record. The raw
// response is not modified; a nil location or current object yields empty
// fields rather than a panic.
func Transform(raw *Raw, aqi AqiChoice) DisplayResult {
	var (
		loc RawLocation
		cur RawCurrent
	)
	if raw != nil && raw.Location != nil {
		loc = *raw.Location
	}
	if raw != nil && raw.Current != nil {
		cur = *raw.Current
	}

	result := DisplayResult{
		Info: Info{
			Location: loc.Name,
			Region:   loc.Region,
			Country:  loc.Country,
			Lat:      loc.Lat,
			Lon:      loc.Lon,
			Time:     loc.LocalTime,
			TempC:    cur.TempC,
			Humidity: cur.Humidity,
			WindKph:  cur.WindKph,
			Cloud:    cur.Cloud,
			RainProb: RainProbability(cur.TempC, cur.Humidity, cur.WindKph, cur.Cloud),
		},
	}

	if aqi.Includes() && cur.AirQuality != nil {
		result.AirQuality = cur.AirQuality
	}

	return result
}
