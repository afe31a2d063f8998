package env

// Reading holds the values of one acquisition cycle.
//
// The probe fields keep their last successful values when ProbeValid is
// false; consumers decide whether stale values may be used.
type Reading struct {
	ProbeTemperature float64 `json:"probe_temp_c"` // °C, humidity probe
	Humidity         float64 `json:"humidity_pct"` // %RH

	BarometerTemperature float64 `json:"baro_temp_c"`     // °C
	StationPressure      float64 `json:"pressure_pa"`     // Pa, uncorrected
	SeaLevelPressure     int     `json:"sea_level_pa"`    // Pa, elevation corrected
	LightLevel           float64 `json:"light_level_pct"` // % of full scale

	ProbeValid bool `json:"probe_valid"`
}

// FahrenheitOf converts a Celsius temperature.
func FahrenheitOf(celsius float64) float64 {
	return celsius*9/5 + 32
}
