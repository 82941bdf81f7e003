// Package lexicon holds the gambling-term lexicons, the OCR correction rules
// and the named detection profiles built on them. Profiles are loaded once at
// startup and shared read-only by every request.
package lexicon

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
	"gopkg.in/yaml.v3"
)

// Profile names
const (
	ProfileGeneral   = "general"
	ProfilePrecision = "precision"
)

// ScoringMode selects how keyword evidence and the classifier are combined
type ScoringMode string

const (
	ModeTiers   ScoringMode = "tiers"   // Count-tiered keywords, optional classifier fallback
	ModeGated   ScoringMode = "gated"   // Keywords required, classifier probability decides
	ModeDensity ScoringMode = "density" // Keyword density fused with the classifier
)

// Labels are the human-readable status strings of a profile
type Labels struct {
	Detected    string `yaml:"detected"`
	NotDetected string `yaml:"not_detected"`
}

// Rule is the scoring configuration of one modality
type Rule struct {
	Mode      ScoringMode `yaml:"mode"`
	Tiers     TierTable   `yaml:"tiers"`
	Fallback  bool        `yaml:"fallback"`  // Consult the classifier when no keyword matched
	Threshold float64     `yaml:"threshold"` // Classifier threshold for fallback and gated modes
	Labels    *Labels     `yaml:"labels,omitempty"`
}

// Sampling bounds video frame OCR
type Sampling struct {
	MaxFrames int `yaml:"max_frames"` // Frames scanned from the start of the video
	Stride    int `yaml:"stride"`     // Every Nth scanned frame is OCR'd
	MaxWidth  int `yaml:"max_width"`  // Enhanced frames wider than this are resized
}

// PatternRule is a free-form regular expression reported under Label
type PatternRule struct {
	Label   string `yaml:"label"`
	Pattern string `yaml:"pattern"`
}

// Correction replaces a known OCR-garbled token
type Correction struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Profile is a complete, named detection configuration
type Profile struct {
	Name           string                  `yaml:"name"`
	Keywords       []string                `yaml:"keywords"`
	Patterns       []PatternRule           `yaml:"patterns,omitempty"`
	Corrections    []Correction            `yaml:"corrections"`
	Rules          map[model.Modality]Rule `yaml:"rules"`
	Labels         Labels                  `yaml:"labels"`
	SequenceLength int                     `yaml:"sequence_length"`
	Sampling       Sampling                `yaml:"sampling"`
	NormalizeImage bool                    `yaml:"normalize_image"`
	PageTimeout    time.Duration           `yaml:"page_timeout"`
	MinPageText    int                     `yaml:"min_page_text"`
}

// Rule returns the scoring rule for a modality, defaulting to plain tiers
func (p *Profile) Rule(m model.Modality) Rule {
	if r, ok := p.Rules[m]; ok {
		return r
	}
	return Rule{Mode: ModeTiers, Tiers: DefaultTiers}
}

// LabelsFor returns the status labels for a modality
func (p *Profile) LabelsFor(m model.Modality) Labels {
	if r, ok := p.Rules[m]; ok && r.Labels != nil {
		return *r.Labels
	}
	return p.Labels
}

// Label returns the label for a status
func (l Labels) Label(s model.Status) string {
	if s == model.StatusGambling {
		return l.Detected
	}
	return l.NotDetected
}

// Validate checks tier tables, sampling and sequence length
func (p *Profile) Validate() error {
	if len(p.Keywords) == 0 {
		return fmt.Errorf("profile %s: empty lexicon", p.Name)
	}
	for m, r := range p.Rules {
		if err := r.Tiers.Validate(); err != nil {
			return fmt.Errorf("profile %s: %s tiers: %w", p.Name, m, err)
		}
		if r.Threshold < 0 || r.Threshold > 1 {
			return fmt.Errorf("profile %s: %s threshold %.2f outside [0,1]", p.Name, m, r.Threshold)
		}
		switch r.Mode {
		case ModeTiers, ModeGated, ModeDensity:
		default:
			return fmt.Errorf("profile %s: %s: unknown mode %q", p.Name, m, r.Mode)
		}
	}
	if p.Sampling.MaxFrames <= 0 || p.Sampling.Stride <= 0 || p.Sampling.MaxWidth <= 0 {
		return fmt.Errorf("profile %s: sampling values must be positive", p.Name)
	}
	if p.SequenceLength <= 0 {
		return fmt.Errorf("profile %s: sequence_length must be positive", p.Name)
	}
	return nil
}

// Names lists the built-in profile names
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a private copy of a built-in profile
func Get(name string) (*Profile, error) {
	build, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (supported: %v)", name, Names())
	}
	p := build()
	return &p, nil
}

// Override is the YAML shape of a lexicon file
type Override struct {
	Profile       string        `yaml:"profile"`
	Keywords      []string      `yaml:"keywords"`       // Replaces the base lexicon when set
	ExtraKeywords []string      `yaml:"extra_keywords"` // Appended to the base lexicon
	Patterns      []PatternRule `yaml:"patterns"`
	Corrections   []Correction  `yaml:"corrections"` // Appended after the built-in corrections
}

// Load returns the named profile with an optional YAML override file applied
func Load(name string, overridePath string) (*Profile, error) {
	if overridePath == "" {
		return Get(name)
	}

	data, err := os.ReadFile(overridePath)
	if err != nil {
		return nil, fmt.Errorf("read lexicon file: %w", err)
	}

	var ov Override
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("parse lexicon file: %w", err)
	}
	if ov.Profile != "" {
		name = ov.Profile
	}

	p, err := Get(name)
	if err != nil {
		return nil, err
	}
	if len(ov.Keywords) > 0 {
		p.Keywords = append([]string(nil), ov.Keywords...)
	}
	p.Keywords = append(p.Keywords, ov.ExtraKeywords...)
	p.Patterns = append(p.Patterns, ov.Patterns...)
	p.Corrections = append(p.Corrections, ov.Corrections...)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

var builtin = map[string]func() Profile{
	ProfileGeneral:   generalProfile,
	ProfilePrecision: precisionProfile,
}

// DefaultTiers maps 0..5+ keywords to confidence for text, video and URL checks
var DefaultTiers = TierTable{0, 0.55, 0.60, 0.70, 0.85, 1.0}

// ImageTiers is the steeper table used for OCR'd banners
var ImageTiers = TierTable{0, 0.55, 0.65, 0.75, 0.90, 1.0}

// DefaultCorrections fixes tokens OCR commonly garbles on gambling banners.
// Order matters: later entries see the output of earlier ones.
var DefaultCorrections = []Correction{
	{"rpee8", "rp888"}, {"rpeeb", "rp888"}, {"rpeebcc", "rp888"},
	{"hemmember", "newmember"}, {"kekalahai", "kekalahan"},
	{"rpenib", "rp888"}, {"ratub", "ratu89"}, {"jonus", "bonus"},
	{"ekeo", "depo"}, {"wuib9", "judi89"}, {"sirusslot", "situs slot"},
	{"eco", "gacor"}, {"tkunbaru", "akunbaru"},
}

// generalKeywords is the short lexicon used for general checks
var generalKeywords = []string{
	"judi", "slot", "gacor", "jackpot", "bet", "maxwin", "bo", "rtp",
	"casino", "toto", "qq", "poker", "bola", "parlay", "scatter",
	"bonus", "spin", "deposit", "wd", "situs",
	"betting", "angka", "bandar", "slot gacor", "demo slot pg",
	"judol", "yoktogel", "nanastoto", "partaitogel", "mariatogel",
}

// videoPatterns catch phrase pairs split by other words in OCR'd frames
var videoPatterns = []PatternRule{
	{"slot_online", `slot.*online`}, {"togel_online", `togel.*online`},
	{"judi_online", `judi.*online`}, {"bonus_deposit", `bonus.*deposit`},
	{"free_spin", `free.*spin`}, {"jackpot", `jackpot`},
	{"casino_online", `casino.*online`}, {"taruhan_online", `taruhan.*online`},
	{"bet_online", `bet.*online`},
}

// precisionKeywords is the phrase lexicon used for high-precision web checks
var precisionKeywords = []string{
	// slot games
	"slot online", "slot gacor", "slot maxwin", "slot pragmatic",
	"slot pgsoft", "slot jackpot", "rtp slot", "bocoran slot",
	"slot deposit", "slot withdraw", "slot bonus", "slot88",
	"slothoki", "slot joker", "slot habanero", "slot spadegaming",
	"slot microgaming", "slot playtech", "slot yggdrasil",

	// casino and betting platforms
	"judi online", "casino online", "taruhan online", "poker online",
	"togel online", "sbobet", "maxbet", "bet365", "sportsbook online",
	"sabung ayam online", "live casino", "idnpoker", "idn poker",
	"pkv games", "pkvgames", "dominoqq online", "domino online",
	"bandarq online", "ceme online", "capsa online", "qiuqiu online",
	"cmd368", "188bet", "betway", "dafabet", "1xbet", "melbet",
	"parimatch", "fun88", "pinnacle",

	// money movement
	"deposit judi", "wd judi", "withdraw judi", "bonus new member",
	"freebet slot", "freespin judi", "cashback judi", "rollingan slot",
	"referral judi", "depo slot", "wd cepat slot", "tarik dana judi",

	// sites and agents
	"situs judi online", "agen slot online", "bandar judi online",
	"situs slot online", "link slot gacor", "daftar judi online",
	"login judi online", "agen casino online", "bandar slot online",
}

var detectedLabel = "Terindikasi Iklan Judi"

func generalProfile() Profile {
	return Profile{
		Name:        ProfileGeneral,
		Keywords:    append([]string(nil), generalKeywords...),
		Patterns:    append([]PatternRule(nil), videoPatterns...),
		Corrections: append([]Correction(nil), DefaultCorrections...),
		Rules: map[model.Modality]Rule{
			model.ModalityText:  {Mode: ModeTiers, Tiers: DefaultTiers, Fallback: true, Threshold: 0.5},
			model.ModalityImage: {Mode: ModeTiers, Tiers: ImageTiers, Fallback: true, Threshold: 0.5},
			model.ModalityVideo: {Mode: ModeTiers, Tiers: DefaultTiers, Fallback: true, Threshold: 0.3},
			model.ModalityMedia: {Mode: ModeTiers, Tiers: DefaultTiers, Fallback: true, Threshold: 0.3},
			model.ModalityURL:   {Mode: ModeTiers, Tiers: DefaultTiers},
		},
		Labels:         Labels{Detected: detectedLabel, NotDetected: "Tidak Terindikasi Iklan Judi"},
		SequenceLength: 200,
		Sampling:       Sampling{MaxFrames: 30, Stride: 3, MaxWidth: 1200},
		NormalizeImage: true,
		PageTimeout:    15 * time.Second,
		MinPageText:    50,
	}
}

func precisionProfile() Profile {
	return Profile{
		Name:        ProfilePrecision,
		Keywords:    append([]string(nil), precisionKeywords...),
		Corrections: append([]Correction(nil), DefaultCorrections...),
		Rules: map[model.Modality]Rule{
			model.ModalityText:  {Mode: ModeGated, Tiers: DefaultTiers, Threshold: 0.5},
			model.ModalityImage: {Mode: ModeGated, Tiers: ImageTiers, Threshold: 0.5},
			model.ModalityVideo: {Mode: ModeGated, Tiers: DefaultTiers, Threshold: 0.5},
			model.ModalityMedia: {Mode: ModeTiers, Tiers: DefaultTiers, Fallback: true, Threshold: 0.3},
			model.ModalityURL: {
				Mode:   ModeDensity,
				Tiers:  DefaultTiers,
				Labels: &Labels{Detected: detectedLabel, NotDetected: "Bukan Situs Judi"},
			},
		},
		Labels:         Labels{Detected: detectedLabel, NotDetected: "Bukan Iklan Judi"},
		SequenceLength: 100,
		Sampling:       Sampling{MaxFrames: 20, Stride: 5, MaxWidth: 800},
		PageTimeout:    25 * time.Second,
		MinPageText:    100,
	}
}
