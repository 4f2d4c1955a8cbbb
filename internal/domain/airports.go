package domain

import "strings"

// airportCountry maps IATA airport codes to ISO 3166-1 alpha-2 countries.
// It covers the busiest international hubs; unknown codes stay undetermined.
var airportCountry = map[string]string{
	// Korea
	"ICN": "KR", "GMP": "KR", "PUS": "KR", "CJU": "KR", "TAE": "KR",
	// Japan
	"NRT": "JP", "HND": "JP", "KIX": "JP", "ITM": "JP", "NGO": "JP", "FUK": "JP", "CTS": "JP", "OKA": "JP",
	// China, Hong Kong, Macau, Taiwan
	"PEK": "CN", "PKX": "CN", "PVG": "CN", "SHA": "CN", "CAN": "CN", "SZX": "CN", "CTU": "CN", "TFU": "CN", "XIY": "CN", "KMG": "CN",
	"HKG": "HK", "MFM": "MO", "TPE": "TW", "TSA": "TW", "KHH": "TW",
	// South and Southeast Asia
	"SIN": "SG", "BKK": "TH", "DMK": "TH", "HKT": "TH", "CNX": "TH",
	"KUL": "MY", "PEN": "MY", "CGK": "ID", "DPS": "ID", "MNL": "PH", "CEB": "PH",
	"SGN": "VN", "HAN": "VN", "DAD": "VN", "PNH": "KH", "RGN": "MM",
	"DEL": "IN", "BOM": "IN", "BLR": "IN", "MAA": "IN", "HYD": "IN", "CCU": "IN",
	"CMB": "LK", "KTM": "NP", "DAC": "BD", "MLE": "MV",
	// Middle East
	"DXB": "AE", "AUH": "AE", "DOH": "QA", "RUH": "SA", "JED": "SA", "KWI": "KW", "BAH": "BH", "MCT": "OM",
	"TLV": "IL", "AMM": "JO", "IST": "TR", "SAW": "TR", "AYT": "TR",
	// Europe
	"LHR": "GB", "LGW": "GB", "STN": "GB", "LTN": "GB", "MAN": "GB", "EDI": "GB",
	"CDG": "FR", "ORY": "FR", "NCE": "FR", "LYS": "FR",
	"FRA": "DE", "MUC": "DE", "BER": "DE", "DUS": "DE", "HAM": "DE",
	"AMS": "NL", "BRU": "BE", "LUX": "LU", "ZRH": "CH", "GVA": "CH", "VIE": "AT",
	"MAD": "ES", "BCN": "ES", "PMI": "ES", "AGP": "ES", "LIS": "PT", "OPO": "PT",
	"FCO": "IT", "MXP": "IT", "LIN": "IT", "VCE": "IT", "NAP": "IT",
	"CPH": "DK", "ARN": "SE", "OSL": "NO", "HEL": "FI", "KEF": "IS", "DUB": "IE",
	"WAW": "PL", "KRK": "PL", "PRG": "CZ", "BUD": "HU", "OTP": "RO", "SOF": "BG",
	"ATH": "GR", "SKG": "GR", "ZAG": "HR", "BEG": "RS",
	"SVO": "RU", "DME": "RU", "VKO": "RU", "LED": "RU", "KBP": "UA",
	// Americas
	"JFK": "US", "EWR": "US", "LGA": "US", "LAX": "US", "SFO": "US", "SEA": "US", "ORD": "US", "ATL": "US",
	"DFW": "US", "IAH": "US", "MIA": "US", "BOS": "US", "IAD": "US", "DCA": "US", "DEN": "US", "LAS": "US",
	"PHX": "US", "MSP": "US", "DTW": "US", "PHL": "US", "SAN": "US", "HNL": "US", "ANC": "US", "MCO": "US",
	"YYZ": "CA", "YVR": "CA", "YUL": "CA", "YYC": "CA", "YOW": "CA",
	"MEX": "MX", "CUN": "MX", "GDL": "MX", "BOG": "CO", "LIM": "PE", "SCL": "CL",
	"EZE": "AR", "AEP": "AR", "GRU": "BR", "GIG": "BR", "BSB": "BR", "PTY": "PA", "SJO": "CR", "HAV": "CU",
	// Oceania
	"SYD": "AU", "MEL": "AU", "BNE": "AU", "PER": "AU", "ADL": "AU", "AKL": "NZ", "CHC": "NZ", "WLG": "NZ",
	"NAN": "FJ", "GUM": "GU", "SPN": "MP",
	// Africa
	"JNB": "ZA", "CPT": "ZA", "CAI": "EG", "ADD": "ET", "NBO": "KE", "LOS": "NG", "CMN": "MA", "ALG": "DZ", "TUN": "TN",
}

// AirportCountry returns the ISO country of an IATA airport code.
func AirportCountry(code string) (string, bool) {
	c, ok := airportCountry[strings.ToUpper(code)]
	return c, ok
}

// InternationalRoute reports whether the two airports are in different
// countries. known is false if either airport is not in the table.
func InternationalRoute(origin, destination string) (international, known bool) {
	from, ok := AirportCountry(origin)
	if !ok {
		return false, false
	}
	to, ok := AirportCountry(destination)
	if !ok {
		return false, false
	}
	return from != to, true
}
