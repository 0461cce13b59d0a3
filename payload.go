package grokflag

const (
	// grokBaseURL is the origin every request is sent to and attributed from.
	grokBaseURL = "https://grok.com"

	// updateFeatureControlsURL is the gRPC-Web endpoint for user feature toggles.
	updateFeatureControlsURL = grokBaseURL + "/auth_mgmt.AuthManagement/UpdateUserFeatureControls"

	grokReferer = grokBaseURL + "/?_s=data"

	// nsfwFeatureName is the only feature this client knows how to enable.
	nsfwFeatureName = "always_show_nsfw_content"
)

// enableNSFWPayload is a single gRPC-Web data frame for UpdateUserFeatureControls.
//
//	00                  frame flag: data
//	00 00 00 20         message length, big endian (32)
//	0a 02               field 1, length-delimited, 2 bytes
//	   10 01              field 2, varint: true
//	12 1a               field 2, length-delimited, 26 bytes
//	   0a 18              field 1, string, 24 bytes
//	   "always_show_nsfw_content"
var enableNSFWPayload = []byte(
	"\x00\x00\x00\x00\x20" +
		"\x0a\x02\x10\x01" +
		"\x12\x1a" +
		"\x0a\x18" +
		nsfwFeatureName,
)

// payloadBytes returns a private copy so a transport can never mutate the constant.
func payloadBytes() []byte {
	b := make([]byte, len(enableNSFWPayload))
	copy(b, enableNSFWPayload)
	return b
}
