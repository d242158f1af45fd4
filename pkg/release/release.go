// Package release parses release names into quality metadata used for
// requirement matching.
package release

// QualityLevel represents the video resolution tier of a release.
type QualityLevel int

const (
	QualityUnknown QualityLevel = iota
	Quality720p
	Quality1080p
	Quality2160p
)

// unknownStr is the string representation for unknown values.
const unknownStr = "unknown"

func (q QualityLevel) String() string {
	switch q {
	case Quality720p:
		return "720p"
	case Quality1080p:
		return "1080p"
	case Quality2160p:
		return "2160p"
	default:
		return unknownStr
	}
}

// ParseQualityLevel converts a config string like "1080p" into a QualityLevel.
// Unrecognized values map to QualityUnknown.
func ParseQualityLevel(s string) QualityLevel {
	switch s {
	case "720p":
		return Quality720p
	case "1080p":
		return Quality1080p
	case "2160p", "4k", "4K":
		return Quality2160p
	default:
		return QualityUnknown
	}
}

// Trait is a quality attribute of a release beyond its resolution: audio
// codecs, source type and PROPER/REPACK tags.
type Trait int

const (
	TraitUnknown Trait = iota
	TraitAAC
	TraitBluRay
	TraitDTS
	TraitDTSHD
	TraitDTSHDMA
	TraitTrueHD
	TraitAtmos
	TraitAC51
	TraitAC71
	TraitWebDL
	TraitProper
	TraitRepack
)

func (t Trait) String() string {
	switch t {
	case TraitAAC:
		return "aac"
	case TraitBluRay:
		return "bluray"
	case TraitDTS:
		return "dts"
	case TraitDTSHD:
		return "dts-hd"
	case TraitDTSHDMA:
		return "dts-hd-ma"
	case TraitTrueHD:
		return "truehd"
	case TraitAtmos:
		return "atmos"
	case TraitAC51:
		return "5.1"
	case TraitAC71:
		return "7.1"
	case TraitWebDL:
		return "webdl"
	case TraitProper:
		return "proper"
	case TraitRepack:
		return "repack"
	default:
		return unknownStr
	}
}

// ParseTrait converts a config string into a Trait. Accepts the same
// spellings String produces plus common release-name variants.
func ParseTrait(s string) Trait {
	switch s {
	case "aac":
		return TraitAAC
	case "bluray", "blu-ray":
		return TraitBluRay
	case "dts":
		return TraitDTS
	case "dts-hd", "dtshd":
		return TraitDTSHD
	case "dts-hd-ma", "dts-hd.ma", "dtshdma":
		return TraitDTSHDMA
	case "truehd":
		return TraitTrueHD
	case "atmos":
		return TraitAtmos
	case "5.1", "dd5.1", "ddp5.1":
		return TraitAC51
	case "7.1":
		return TraitAC71
	case "webdl", "web-dl", "web":
		return TraitWebDL
	case "proper":
		return TraitProper
	case "repack", "rerip":
		return TraitRepack
	default:
		return TraitUnknown
	}
}

// HasTrait reports whether traits contains t.
func HasTrait(traits []Trait, t Trait) bool {
	for _, have := range traits {
		if have == t {
			return true
		}
	}
	return false
}
