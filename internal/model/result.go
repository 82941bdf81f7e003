package model

// CheckResult carries the fields shared by every check response
type CheckResult struct {
	Success          bool           `json:"success"`
	Status           string         `json:"status"`
	Confidence       string         `json:"confidence"`
	RawConfidence    float64        `json:"raw_confidence"`
	GamblingKeywords []string       `json:"gambling_keywords"`
	KeywordCount     int            `json:"keyword_count"`
	KeywordOrigins   []KeywordMatch `json:"keyword_origins,omitempty"`
	Method           Method         `json:"method"`
	Signals          []Signal       `json:"signals,omitempty"`
	Steps            []StepReport   `json:"step_outcomes,omitempty"`
	Verdict          Verdict        `json:"-"`
}

// TextResult is the response of a text check
type TextResult struct {
	CheckResult
	TextLength int `json:"text_length"`
}

// ImageResult is the response of an image check
type ImageResult struct {
	CheckResult
	OCRText        string `json:"ocr_text"`
	NormalizedText string `json:"normalized_text,omitempty"`
	TextLength     int    `json:"text_length"`
}

// VideoInfo describes a probed video
type VideoInfo struct {
	TotalFrames     int     `json:"total_frames"`
	FPS             float64 `json:"fps"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// VideoResult is the response of a video check
type VideoResult struct {
	CheckResult
	CombinedOCRText string    `json:"combined_ocr_text"`
	AudioTranscript string    `json:"audio_transcript"`
	FramesProcessed int       `json:"frames_processed"`
	FramesSampled   int       `json:"frames_sampled"`
	VideoInfo       VideoInfo `json:"video_info"`
}

// URLResult is the response of a webpage check
type URLResult struct {
	CheckResult
	SourceURL       string `json:"source_url"`
	ExtractedText   string `json:"extracted_text"`
	FullTextLength  int    `json:"full_text_length"`
	DetectionMethod string `json:"detection_method"`
}

// Remote media analysis methods
const (
	MediaMetadataOnly = "metadata_analysis_only"
	MediaFullAnalysis = "full_video_analysis"
)

// MetadataAnalysis breaks keyword hits down by metadata field
type MetadataAnalysis struct {
	TitleKeywords       []string `json:"title_keywords"`
	DescriptionKeywords []string `json:"description_keywords"`
	TagsKeywords        []string `json:"tags_keywords"`
}

// ContentAnalysis summarises the downloaded media evidence
type ContentAnalysis struct {
	OCRTextSamples  string `json:"ocr_text_samples"`
	AudioTranscript string `json:"audio_transcript"`
	FramesProcessed int    `json:"frames_processed"`
}

// MediaResult is the response of a remote media check
type MediaResult struct {
	CheckResult
	MediaURL         string           `json:"youtube_url"`
	VideoTitle       string           `json:"video_title"`
	VideoDuration    float64          `json:"video_duration"`
	AnalysisMethod   string           `json:"method"` // Shadows the scoring method in JSON
	Note             string           `json:"note,omitempty"`
	MetadataAnalysis MetadataAnalysis `json:"video_metadata_analysis"`
	ContentAnalysis  *ContentAnalysis `json:"video_content_analysis,omitempty"`
}
