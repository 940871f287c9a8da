package gcp

import (
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"strings"
)

// buildSpeechConfig infers the audio encoding from the file extension; the
// caller already routed by extension so the common cases cover everything
// convertAudio will ever see.
func buildSpeechConfig(ext string, languageCode string) speechpb.RecognitionConfig {
	return speechpb.RecognitionConfig{
		LanguageCode:               languageCode,
		Encoding:                   inferEncoding(ext),
		EnableAutomaticPunctuation: true,
		Model:                      "latest_long",
	}
}

func inferEncoding(ext string) speechpb.RecognitionConfig_AudioEncoding {
	switch strings.ToLower(ext) {
	case ".wav":
		return speechpb.RecognitionConfig_LINEAR16
	case ".flac":
		return speechpb.RecognitionConfig_FLAC
	case ".mp3":
		return speechpb.RecognitionConfig_MP3
	case ".ogg", ".opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func recognizeRequest(cfg speechpb.RecognitionConfig, data []byte) speechpb.LongRunningRecognizeRequest {
	c := cfg
	return speechpb.LongRunningRecognizeRequest{
		Config: &c,
		Audio:  &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: data}},
	}
}
