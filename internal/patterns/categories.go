package patterns

// Moderation categories.
const (
	CatInappropriate = "inappropriate"
	CatViolence      = "violence"
	CatHate          = "hate_speech"
	CatSpam          = "spam"
)

// Bias categories.
const (
	CatBiasGender      = "bias_gender"
	CatBiasAge         = "bias_age"
	CatBiasCultural    = "bias_cultural"
	CatBiasNationality = "bias_nationality"
	CatLoadedLanguage  = "loaded_language"
	CatEmotional       = "emotional_manipulation"
	CatInclusive       = "inclusive_language"
	CatLocalContext    = "local_context"
)

// Legal categories.
const (
	CatDefamation = "defamation"
	CatPrivacy    = "privacy_data"
	CatCopyright  = "copyright"
	CatRegulated  = "regulated_activity"
	CatProhibited = "prohibited_speech"
)

// Cultural sensitivity categories. The *_respect and relevance categories are
// positive signals; the rest are concerns.
const (
	CatReligious         = "religious"
	CatReligiousRespect  = "religious_respect"
	CatSocialNorms       = "social_norms"
	CatLanguage          = "language"
	CatLocalRelevance    = "local_relevance"
	CatBusinessEtiquette = "business_etiquette"
	CatCulturalAwareness = "cultural_awareness"
	CatCulturalOffense   = "cultural_offense"
)

// Claim extraction categories.
const (
	CatClaimIndicator = "claim_indicator"
	CatStatistic      = "statistic"
	CatDate           = "date"
	CatLocation       = "location"
	CatPerson         = "person"
	CatOrganization   = "organization"
	CatEvent          = "event"
	CatAbsolute       = "absolute_language"
	CatTimeSensitive  = "time_sensitive"
	CatAttribution    = "attribution"
)

// Writing categories.
const (
	CatConfusable     = "confusable_word"
	CatMisspelling    = "misspelling"
	CatDoubleSpace    = "double_space"
	CatCapitalization = "capitalization"
	CatPassiveVoice   = "passive_voice"
	CatBrandKeyword   = "brand_keyword"
	CatPositiveTone   = "positive_tone"
	CatNegativeTone   = "negative_tone"
	CatPlaceholder    = "placeholder"
)
