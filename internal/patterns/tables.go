package patterns

import (
	"sync"

	"github.com/jonesrussell/north-cloud/quality-engine/internal/domain"
)

var profanity = []string{
	"damn", "crap", "wtf", "stfu", "bloody hell", "piss off", "screw you", "idiot", "stupid", "moron",
}

var explicitTerms = []string{
	"porn", "pornography", "nude photos", "sexually explicit", "escort service", "xxx",
}

// UAELocations are the emirates, cities and districts treated as local.
var UAELocations = []string{
	"uae", "united arab emirates", "emirates", "dubai", "abu dhabi", "sharjah", "ajman",
	"ras al khaimah", "fujairah", "umm al quwain", "al ain", "deira", "bur dubai", "jumeirah",
	"dubai marina", "downtown dubai", "business bay", "jebel ali", "palm jumeirah", "al barsha",
	"karama", "satwa", "mirdif", "al quoz", "hatta", "khor fakkan", "dibba", "liwa", "ruwais",
	"yas island", "saadiyat", "al reem island", "mussafah", "kalba", "jlt", "jbr", "difc",
}

var moderationTable = []Pattern{
	{Name: "profanity", Category: CatInappropriate, Severity: domain.SeverityMedium, Weight: 1, Terms: profanity,
		Description: "Profanity or insulting language", Suggestion: "Replace with neutral wording"},
	{Name: "explicit", Category: CatInappropriate, Severity: domain.SeverityCritical, Weight: 1, Terms: explicitTerms,
		Description: "Sexually explicit content", Suggestion: "Remove explicit material"},
	{Name: "violence", Category: CatViolence, Severity: domain.SeverityHigh, Weight: 1,
		Terms:       []string{"massacre", "behead", "bloodbath", "shoot them", "kill them", "bomb making", "terror attack"},
		Description: "Graphic or inciting violence", Suggestion: "Report facts without graphic or inciting language"},
	{Name: "hate", Category: CatHate, Severity: domain.SeverityCritical, Weight: 1,
		Terms:       []string{"inferior race", "subhuman", "go back to your country", "ethnic cleansing", "hate speech"},
		Description: "Hateful or dehumanizing language", Suggestion: "Remove hateful language"},
	{Name: "spam-phrases", Category: CatSpam, Severity: domain.SeverityLow, Weight: 1,
		Terms:       []string{"click here", "buy now", "limited time offer", "100% free", "act fast", "earn money fast", "dm for price"},
		Description: "Promotional spam phrasing", Suggestion: "Remove call-to-action spam"},
}

var biasTable = []Pattern{
	{Name: "gendered-terms", Category: CatBiasGender, Severity: domain.SeverityLow, Weight: 1,
		Terms:       []string{"manpower", "chairman", "housewife", "man-made", "salesman", "mankind", "like a girl"},
		Description: "Gendered language", Suggestion: "Use gender-neutral terms"},
	{Name: "gender-generalization", Category: CatBiasGender, Severity: domain.SeverityMedium, Weight: 1,
		Expr:        `\b(?:women|men|girls|boys) (?:are|can't|cannot|always|never) (?:bad|good|better|worse|emotional|weak|strong)\b`,
		Description: "Generalization about a gender", Suggestion: "Avoid generalizing about genders"},
	{Name: "ageism", Category: CatBiasAge, Severity: domain.SeverityMedium, Weight: 1,
		Terms:       []string{"too old to", "old people can't", "millennials are lazy", "boomers", "over the hill", "senile"},
		Description: "Age-based stereotype", Suggestion: "Describe people without age stereotypes"},
	{Name: "cultural-othering", Category: CatBiasCultural, Severity: domain.SeverityMedium, Weight: 1,
		Terms:       []string{"these people", "backward culture", "uncivilized", "exotic natives", "primitive"},
		Description: "Othering or stereotyping culture", Suggestion: "Describe communities respectfully and specifically"},
	{Name: "nationality-generalization", Category: CatBiasNationality, Severity: domain.SeverityHigh, Weight: 1,
		Expr:        `\b(?:all|typical|those) (?:indians|pakistanis|filipinos|westerners|arabs|expats|locals|emiratis|europeans|africans|asians)\b`,
		Description: "Generalization about a nationality", Suggestion: "Avoid attributing traits to whole nationalities"},
	{Name: "loaded", Category: CatLoadedLanguage, Severity: domain.SeverityLow, Weight: 1,
		Terms: []string{"shocking", "outrageous", "disaster", "scandal", "devastating", "horrific", "disgraceful", "catastrophic", "insane"}},
	{Name: "emotional", Category: CatEmotional, Severity: domain.SeverityLow, Weight: 1,
		Terms: []string{"you won't believe", "must see", "heartbreaking", "terrifying", "act now", "before it's too late", "jaw-dropping"}},
	{Name: "inclusive", Category: CatInclusive, Weight: 1,
		Terms: []string{"residents", "community", "everyone", "families", "all nationalities", "inclusive", "diverse", "people of determination", "visitors"}},
	{Name: "local", Category: CatLocalContext, Weight: 1, Terms: UAELocations},
}

var legalTable = []Pattern{
	{Name: "defamation", Category: CatDefamation, Severity: domain.SeverityHigh, Weight: 1,
		Terms:       []string{"fraudster", "scammer", "is a liar", "corrupt official", "crook", "is a criminal", "embezzler"},
		Description: "Potentially defamatory statement about an identifiable party", Suggestion: "Attribute allegations to a source or remove them"},
	{Name: "emirates-id", Category: CatPrivacy, Severity: domain.SeverityCritical, Weight: 1,
		Expr:        `\b784-?\d{4}-?\d{7}-?\d\b`,
		Description: "Emirates ID number exposed", Suggestion: "Remove personal identification numbers"},
	{Name: "phone-number", Category: CatPrivacy, Severity: domain.SeverityMedium, Weight: 1,
		Expr:        `(?:\+971|00971|\b0)5\d[\s-]?\d{3}[\s-]?\d{4}\b`,
		Description: "Personal mobile number exposed", Suggestion: "Remove personal phone numbers"},
	{Name: "email", Category: CatPrivacy, Severity: domain.SeverityMedium, Weight: 1,
		Expr:        `\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`,
		Description: "Email address exposed", Suggestion: "Remove personal email addresses"},
	{Name: "copyright", Category: CatCopyright, Severity: domain.SeverityMedium, Weight: 1,
		Terms:       []string{"all rights reserved", "reproduced without permission", "copied from", "courtesy of getty", "used without permission"},
		Expr:        `©\s*\d{4}`,
		Description: "Third-party copyright marker", Suggestion: "Confirm usage rights or remove the material"},
	{Name: "regulated", Category: CatRegulated, Severity: domain.SeverityHigh, Weight: 1,
		Terms: []string{"gambling", "casino", "betting", "lottery tickets", "online poker", "cryptocurrency investment",
			"forex trading", "alcohol delivery", "vape shop", "cannabis", "marijuana", "dating app"},
		Description: "Mentions an activity regulated in the UAE", Suggestion: "Check the activity is licensed and lawful before publishing"},
	{Name: "prohibited", Category: CatProhibited, Severity: domain.SeverityCritical, Weight: 1,
		Terms: []string{"insult the president", "overthrow the government", "criticize the rulers", "defame the royal family",
			"illegal drugs for sale", "buy cocaine"},
		Description: "Content prohibited under UAE media law", Suggestion: "Remove the prohibited statement"},
}

var culturalTable = []Pattern{
	{Name: "blasphemy", Category: CatCulturalOffense, Severity: domain.SeverityCritical, Weight: 1,
		Terms:       []string{"blasphemy", "insult islam", "mock the prophet", "burn the quran", "mocking religion"},
		Description: "Offensive to religious beliefs", Suggestion: "Remove content disrespecting religion"},
	{Name: "religious-concern", Category: CatReligious, Severity: domain.SeverityMedium, Weight: 1,
		Terms:       []string{"pork", "bacon", "eating in public during ramadan", "ramadan party", "booze"},
		Description: "Religiously sensitive reference", Suggestion: "Add context or rephrase respectfully"},
	{Name: "religious-respect", Category: CatReligiousRespect, Weight: 1,
		Terms: []string{"ramadan kareem", "eid mubarak", "mosque", "prayer times", "iftar", "suhoor", "holy month"}},
	{Name: "social-norms", Category: CatSocialNorms, Severity: domain.SeverityMedium, Weight: 1,
		Terms:       []string{"public display of affection", "kissing in public", "revealing clothing", "topless", "cohabiting", "drunk", "nightclub", "alcohol"},
		Description: "May conflict with local social norms", Suggestion: "Check the reference suits local norms"},
	{Name: "language", Category: CatLanguage, Severity: domain.SeverityLow, Weight: 1, Terms: profanity,
		Description: "Informal or offensive language", Suggestion: "Use respectful language"},
	{Name: "local-relevance", Category: CatLocalRelevance, Weight: 1, Terms: UAELocations},
	{Name: "business-concern", Category: CatBusinessEtiquette, Severity: domain.SeverityMedium, Weight: 1,
		Terms:       []string{"bribe", "kickback", "under the table", "wasta"},
		Description: "Suggests improper business practice", Suggestion: "Avoid implying improper business conduct"},
	{Name: "cultural-awareness", Category: CatCulturalAwareness, Weight: 1,
		Terms: []string{"emirati heritage", "national day", "majlis", "arabic coffee", "falconry", "souk", "abaya", "kandura",
			"dhow", "bedouin", "heritage village", "union day", "commemoration day"}},
}

var month = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var claimTable = []Pattern{
	{Name: "indicator", Category: CatClaimIndicator, Weight: 1,
		Terms: []string{"according to", "study shows", "studies show", "research shows", "survey found", "statistics show",
			"data shows", "experts say", "officials said", "announced", "confirmed", "reported"}},
	{Name: "percent", Category: CatStatistic, Weight: 1, Expr: `\b\d+(?:\.\d+)?\s?(?:%|percent\b|per cent\b)`},
	{Name: "large-number", Category: CatStatistic, Weight: 1, Expr: `\b\d+(?:\.\d+)?\s?(?:million|billion|thousand)\b|\b\d{1,3}(?:,\d{3})+\b`},
	{Name: "currency", Category: CatStatistic, Weight: 1, Expr: `\b(?:aed|dhs?|usd)\s?\d[\d,.]*\b`},
	{Name: "date-text", Category: CatDate, Weight: 1, Expr: `\b\d{1,2}\s+` + month + `\s+\d{4}\b|\b` + month + `\s+\d{1,2},?\s+\d{4}\b`},
	{Name: "date-numeric", Category: CatDate, Weight: 1, Expr: `\b\d{4}-\d{2}-\d{2}\b|\b\d{1,2}/\d{1,2}/\d{4}\b`},
	{Name: "year", Category: CatDate, Weight: 1, Expr: `\b(?:in|since|by|until) (?:19|20)\d{2}\b`},
	{Name: "place", Category: CatLocation, Weight: 1, CaseSensitive: true,
		Expr: `\b(?:in|at|from|near) ([A-Z][a-z]+(?: [A-Z][a-z]+){0,2})`},
	{Name: "uae-place", Category: CatLocation, Weight: 1, Terms: UAELocations},
	{Name: "titled-person", Category: CatPerson, Weight: 1, CaseSensitive: true,
		Expr: `\b(?:Sheikh|Sheikha|H\.H\.|Dr\.|Mr\.|Mrs\.|Ms\.|Minister|Director|CEO|Chairman) [A-Z][a-z]+(?: [A-Z][a-z]+)?`},
	{Name: "organization-suffix", Category: CatOrganization, Weight: 1, CaseSensitive: true,
		Expr: `\b(?:[A-Z][a-z]+ ){1,3}(?:Authority|Ministry|Municipality|Council|Department|Corporation|Company|University|Police|Airport|Airlines)\b`},
	{Name: "organization-known", Category: CatOrganization, Weight: 1,
		Terms: []string{"rta", "dewa", "etihad", "emirates airline", "dubai police", "wam", "dubai municipality", "adnoc", "emaar", "dp world"}},
	{Name: "event", Category: CatEvent, Weight: 1,
		Terms: []string{"festival", "expo", "exhibition", "conference", "summit", "championship", "concert", "grand opening", "ceremony", "launch"}},
	{Name: "absolute", Category: CatAbsolute, Weight: 1,
		Terms: []string{"always", "never", "all", "every", "none", "nobody", "everyone", "guaranteed", "definitely", "undoubtedly", "the only", "100%"}},
	{Name: "time-sensitive", Category: CatTimeSensitive, Weight: 1,
		Terms: []string{"currently", "right now", "today", "this week", "recently", "latest", "breaking", "at the moment", "as of", "this year", "upcoming"}},
	{Name: "attribution", Category: CatAttribution, Weight: 1,
		Terms: []string{"according to", "said", "reported by", "cited", "source:", "sources:", "told", "stated", "per the"}},
}

var grammarTable = []Pattern{
	{Name: "modal-of", Category: CatConfusable, Severity: domain.SeverityLow, Weight: 2,
		Expr: `\b(?:could|should|would|must|might) of\b`, Suggestion: `Use "have" after modal verbs`},
	{Name: "then-than", Category: CatConfusable, Severity: domain.SeverityLow, Weight: 2,
		Expr: `\b(?:more|less|better|worse|rather|other|bigger|smaller) then\b`, Suggestion: `Use "than" for comparisons`},
	{Name: "your-youre", Category: CatConfusable, Severity: domain.SeverityLow, Weight: 2,
		Expr: `\byour (?:welcome|going|doing|not|right)\b`, Suggestion: `Use "you're"`},
	{Name: "its-its", Category: CatConfusable, Severity: domain.SeverityLow, Weight: 2,
		Expr: `\bits (?:a|been|going|not|very)\b`, Suggestion: `Use "it's"`},
	{Name: "misspelling", Category: CatMisspelling, Severity: domain.SeverityLow, Weight: 2,
		Terms: []string{"alot", "recieve", "recieved", "seperate", "definately", "occured", "untill", "accomodation", "teh", "wich"}},
	{Name: "double-space", Category: CatDoubleSpace, Severity: domain.SeverityLow, Weight: 2, CaseSensitive: true,
		Expr: `\S {2,}\S`, Suggestion: "Use a single space between words"},
	{Name: "sentence-case", Category: CatCapitalization, Severity: domain.SeverityLow, Weight: 2, CaseSensitive: true,
		Expr: `[.!?]\s+[a-z]`, Suggestion: "Capitalize the first word of each sentence"},
	{Name: "passive", Category: CatPassiveVoice, Weight: 1,
		Expr: `\b(?:am|is|are|was|were|be|been|being)\s+\w+(?:ed|en)\b`},
}

var brandTable = []Pattern{
	{Name: "brand", Category: CatBrandKeyword, Weight: 1,
		Terms: []string{"mydub", "my dub", "dubai", "uae", "discover", "experience", "explore", "community", "residents", "local"}},
	{Name: "positive", Category: CatPositiveTone, Weight: 1,
		Terms: []string{"amazing", "exciting", "vibrant", "welcoming", "beautiful", "popular", "family-friendly", "unique",
			"authentic", "stunning", "delightful", "memorable", "celebrate"}},
	{Name: "negative", Category: CatNegativeTone, Weight: 1,
		Terms: []string{"terrible", "awful", "boring", "worst", "disappointing", "dirty", "overpriced", "horrible", "useless", "nightmare"}},
	{Name: "inappropriate", Category: CatInappropriate, Severity: domain.SeverityMedium, Weight: 1, Terms: profanity},
}

var qualityTable = []Pattern{
	{Name: "placeholder", Category: CatPlaceholder, Severity: domain.SeverityHigh, Weight: 1,
		Terms:       []string{"lorem ipsum", "placeholder", "insert text here", "sample text", "coming soon", "tbd", "to be updated"},
		Expr:        `\[(?:insert|add|todo)[^\]]*\]|\bxx+\b`,
		Description: "Placeholder text left in content", Suggestion: "Replace placeholder text with final copy"},
}

// Compiled tables, built on first use.
var (
	Moderation = sync.OnceValue(func() *Matcher { return MustNew(moderationTable) })
	Bias       = sync.OnceValue(func() *Matcher { return MustNew(biasTable) })
	Legal      = sync.OnceValue(func() *Matcher { return MustNew(legalTable) })
	Cultural   = sync.OnceValue(func() *Matcher { return MustNew(culturalTable) })
	Claims     = sync.OnceValue(func() *Matcher { return MustNew(claimTable) })
	Grammar    = sync.OnceValue(func() *Matcher { return MustNew(grammarTable) })
	Brand      = sync.OnceValue(func() *Matcher { return MustNew(brandTable) })
	Quality    = sync.OnceValue(func() *Matcher { return MustNew(qualityTable) })
)

// IsUAELocation reports whether place names a known UAE location.
func IsUAELocation(place string) bool {
	folded := Fold(place)
	for _, loc := range UAELocations {
		if folded == loc {
			return true
		}
	}
	return false
}
