package grokflag

import (
	"github.com/bogdanfinn/fhttp/http2"
	"github.com/bogdanfinn/tls-client/profiles"
	tls "github.com/bogdanfinn/utls"
)

// Chrome143UserAgent matches the chrome143 TLS profile. Callers pairing
// that profile with a user agent should send this one.
const Chrome143UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

var chrome143CipherSuites = []uint16{
	tls.GREASE_PLACEHOLDER,
	tls.TLS_AES_128_GCM_SHA256,
	tls.TLS_AES_256_GCM_SHA384,
	tls.TLS_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_CBC_SHA,
	tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
	tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_RSA_WITH_AES_128_CBC_SHA,
	tls.TLS_RSA_WITH_AES_256_CBC_SHA,
}

var chrome143SignatureSchemes = []tls.SignatureScheme{
	tls.ECDSAWithP256AndSHA256,
	tls.PSSWithSHA256,
	tls.PKCS1WithSHA256,
	tls.ECDSAWithP384AndSHA384,
	tls.PSSWithSHA384,
	tls.PKCS1WithSHA384,
	tls.PSSWithSHA512,
	tls.PKCS1WithSHA512,
}

// chrome143Extensions must build fresh extension values on every handshake;
// utls mutates them while marshalling.
func chrome143Extensions() []tls.TLSExtension {
	return []tls.TLSExtension{
		&tls.UtlsGREASEExtension{},
		&tls.PSKKeyExchangeModesExtension{Modes: []uint8{tls.PskModeDHE}},
		&tls.SCTExtension{},
		&tls.KeyShareExtension{KeyShares: []tls.KeyShare{
			{Group: tls.CurveID(tls.GREASE_PLACEHOLDER), Data: []byte{0}},
			{Group: tls.X25519MLKEM768},
			{Group: tls.X25519},
		}},
		&tls.StatusRequestExtension{},
		&tls.SupportedCurvesExtension{Curves: []tls.CurveID{
			tls.GREASE_PLACEHOLDER,
			tls.X25519MLKEM768,
			tls.X25519,
			tls.CurveP256,
			tls.CurveP384,
		}},
		&tls.SessionTicketExtension{},
		tls.BoringGREASEECH(),
		&tls.SupportedPointsExtension{SupportedPoints: []byte{tls.PointFormatUncompressed}},
		&tls.SupportedVersionsExtension{Versions: []uint16{
			tls.GREASE_PLACEHOLDER,
			tls.VersionTLS13,
			tls.VersionTLS12,
		}},
		&tls.SNIExtension{},
		&tls.SignatureAlgorithmsExtension{SupportedSignatureAlgorithms: chrome143SignatureSchemes},
		&tls.ApplicationSettingsExtensionNew{SupportedProtocols: []string{"h2"}},
		&tls.UtlsCompressCertExtension{Algorithms: []tls.CertCompressionAlgo{tls.CertCompressionBrotli}},
		&tls.ExtendedMasterSecretExtension{},
		&tls.ALPNExtension{AlpnProtocols: []string{"h2", "http/1.1"}},
		&tls.RenegotiationInfoExtension{Renegotiation: tls.RenegotiateOnceAsClient},
		&tls.UtlsGREASEExtension{},
		&tls.UtlsPreSharedKeyExtension{},
	}
}

var chrome143HTTP2Settings = map[http2.SettingID]uint32{
	http2.SettingHeaderTableSize:   65536,
	http2.SettingEnablePush:        0,
	http2.SettingInitialWindowSize: 6291456,
	http2.SettingMaxHeaderListSize: 262144,
}

var chrome143HTTP2SettingsOrder = []http2.SettingID{
	http2.SettingHeaderTableSize,
	http2.SettingEnablePush,
	http2.SettingInitialWindowSize,
	http2.SettingMaxHeaderListSize,
}

// chrome143ConnectionFlow is the initial WINDOW_UPDATE increment Chrome sends.
const chrome143ConnectionFlow = 15663105

var chrome143Profile = profiles.NewClientProfile(
	tls.ClientHelloID{
		Client:               "Chrome",
		RandomExtensionOrder: true,
		Version:              "143",
		SpecFactory: func() (tls.ClientHelloSpec, error) {
			return tls.ClientHelloSpec{
				CipherSuites:       append([]uint16(nil), chrome143CipherSuites...),
				CompressionMethods: []byte{tls.CompressionNone},
				Extensions:         chrome143Extensions(),
			}, nil
		},
	},
	chrome143HTTP2Settings,
	chrome143HTTP2SettingsOrder,
	PseudoHeaderOrder,
	chrome143ConnectionFlow,
	nil,
	nil,
)
