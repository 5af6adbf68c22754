// Package crisis screens user messages for crisis indicators. Detection is
// deliberately keyword based and conservative: it runs on every message,
// before and independent of the LLM, so a provider outage never disables it.
package crisis

import (
	"strings"
)

// Resource is one emergency contact surfaced alongside a crisis response.
type Resource struct {
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Description string `json:"description"`
}

// Result is the outcome of screening one message.
type Result struct {
	Detected   bool       `json:"detected"`
	Categories []string   `json:"categories"`
	Resources  []Resource `json:"resources"`
}

// Crisis categories. Category order determines match order and is stable.
const (
	CategorySuicide          = "suicide"
	CategorySelfHarm         = "self_harm"
	CategorySevereDepression = "severe_depression"
	CategorySevereAnxiety    = "severe_anxiety"
	CategorySubstanceAbuse   = "substance_abuse"
	CategoryDomesticViolence = "domestic_violence"
	CategoryChildAbuse       = "child_abuse"
)

type categoryKeywords struct {
	category string
	keywords []string
}

var defaultKeywords = []categoryKeywords{
	{CategorySuicide, []string{
		"suicide", "kill myself", "end my life", "take my own life", "no reason to live",
		"better off dead", "can't go on", "don't want to be alive", "want to die",
		"die", "dying", "death", "fatal", "obituary", "sleeping forever",
	}},
	{CategorySelfHarm, []string{
		"cut myself", "cutting myself", "self-harm", "self harm", "hurt myself",
		"injure myself", "harm myself", "self-injury", "self injury", "hurting myself",
		"injuring myself", "harming myself", "self-mutilation", "self mutilation",
		"burn myself", "burning myself", "punish myself", "punishing myself",
	}},
	{CategorySevereDepression, []string{
		"hopeless", "worthless", "empty", "can't feel anything", "severe depression",
		"deeply depressed", "no purpose", "burden to others", "nothing matters",
		"pointless", "helpless", "trapped", "desperate", "miserable", "unbearable",
	}},
	{CategorySevereAnxiety, []string{
		"panic attack", "can't breathe", "heart racing", "terrified", "constant worry",
		"overwhelming anxiety", "paralyzed with fear", "can't control thoughts",
		"extreme worry", "catastrophic", "doom", "impending doom", "terrifying",
	}},
	{CategorySubstanceAbuse, []string{
		"overdose", "alcohol problem", "drug problem", "addiction", "substance abuse",
		"drinking too much", "can't stop using", "withdrawal", "relapse", "too many pills",
		"using again", "binge drinking", "blackout",
	}},
	{CategoryDomesticViolence, []string{
		"abusive relationship", "domestic violence", "partner hurts me", "afraid of partner",
		"threatened me", "physical abuse", "emotional abuse", "controlling partner",
		"violent partner", "unsafe at home", "partner hits", "intimate partner violence",
	}},
	{CategoryChildAbuse, []string{
		"child abuse", "abused as a child", "molested", "sexually abused", "hurt a child",
		"child in danger", "child neglect", "harm to children", "underage abuse",
	}},
}

var generalResources = []Resource{
	{"Emergency Services", "911", "Call for immediate emergency assistance"},
	{"Crisis Text Line", "Text HOME to 741741", "24/7 crisis support via text message"},
}

var categoryResources = map[string][]Resource{
	CategorySuicide: {
		{"National Suicide Prevention Lifeline", "1-800-273-8255", "24/7 support for people in suicidal crisis"},
		{"988 Suicide & Crisis Lifeline", "988", "Call or text 988 for mental health crisis support"},
	},
	CategorySelfHarm: {
		{"Self-harm Crisis Text Line", "Text HOME to 741741", "24/7 support for self-harm issues"},
		{"S.A.F.E. Alternatives", "1-800-DONT-CUT", "Treatment for self-harm behavior"},
	},
	CategorySubstanceAbuse: {
		{"SAMHSA's National Helpline", "1-800-662-HELP (4357)", "Treatment referral and information service for substance abuse"},
		{"Alcoholics Anonymous", "https://www.aa.org/", "Support for alcohol addiction recovery"},
	},
	CategoryDomesticViolence: {
		{"National Domestic Violence Hotline", "1-800-799-SAFE (7233)", "24/7 support for domestic violence victims"},
	},
	CategoryChildAbuse: {
		{"Childhelp National Child Abuse Hotline", "1-800-4-A-CHILD (1-800-422-4453)", "24/7 hotline for child abuse situations"},
	},
}

// Detector screens messages against the crisis keyword tables.
type Detector struct {
	keywords []categoryKeywords
}

// NewDetector creates a detector with the default keyword tables.
func NewDetector() *Detector {
	return &Detector{keywords: defaultKeywords}
}

// Detect screens one message. Matching is case-insensitive substring search.
func (d *Detector) Detect(message string) Result {
	lowered := strings.ToLower(message)

	var categories []string
	for _, ck := range d.keywords {
		for _, keyword := range ck.keywords {
			if strings.Contains(lowered, keyword) {
				categories = append(categories, ck.category)
				break
			}
		}
	}

	// "hurt"/"harm" near "myself" counts as self harm even when no exact
	// phrase from the table matched.
	if !contains(categories, CategorySelfHarm) {
		selfRef := strings.Contains(lowered, "myself") || strings.Contains(lowered, "self")
		if selfRef && (strings.Contains(lowered, "hurt") || strings.Contains(lowered, "harm")) {
			categories = append(categories, CategorySelfHarm)
		}
	}

	if len(categories) == 0 {
		return Result{}
	}
	return Result{
		Detected:   true,
		Categories: categories,
		Resources:  d.resourcesFor(categories),
	}
}

// resourcesFor returns the general resources plus the resources of each
// detected category, without duplicates.
func (d *Detector) resourcesFor(categories []string) []Resource {
	resources := make([]Resource, 0, len(generalResources))
	resources = append(resources, generalResources...)
	for _, category := range categories {
		for _, r := range categoryResources[category] {
			if !containsResource(resources, r) {
				resources = append(resources, r)
			}
		}
	}
	return resources
}

// Response builds the supportive message shown in place of a normal coaching
// reply when a crisis is detected.
func (d *Detector) Response(result Result) string {
	var b strings.Builder
	b.WriteString("I notice you're expressing some thoughts that concern me. ")
	b.WriteString("Your safety and well-being are important. ")
	b.WriteString("Remember that there are people who can help, and ")
	b.WriteString("reaching out to a mental health professional is a good step. ")

	if contains(result.Categories, CategorySuicide) {
		b.WriteString("I'm especially concerned about your safety right now. ")
		b.WriteString("Please consider calling a crisis helpline immediately. ")
		b.WriteString("They are trained to help with thoughts of suicide and can provide immediate support. ")
	}
	if contains(result.Categories, CategorySelfHarm) {
		b.WriteString("Self-harm is a serious concern, and there are healthier ways to cope with difficult feelings. ")
		b.WriteString("Please reach out to a mental health professional who can help you develop safer coping strategies. ")
	}
	if contains(result.Categories, CategorySevereDepression) {
		b.WriteString("Depression can be overwhelming, but professional support can make a significant difference. ")
		b.WriteString("A therapist or counselor can help you work through these feelings. ")
	}
	if contains(result.Categories, CategorySubstanceAbuse) {
		b.WriteString("Substance use concerns can be addressed with the right support. ")
		b.WriteString("There are specialized resources available to help with recovery and healing. ")
	}
	if contains(result.Categories, CategoryDomesticViolence) {
		b.WriteString("Your safety at home is paramount. There are confidential services ")
		b.WriteString("that can help you create a safety plan and provide support. ")
	}
	if contains(result.Categories, CategoryChildAbuse) {
		b.WriteString("Child safety is critically important. There are dedicated services ")
		b.WriteString("that can provide guidance and support in these situations. ")
	}

	b.WriteString("Below are some resources that might be helpful. ")
	b.WriteString("Please consider reaching out to one of them for professional support:\n\n")
	b.WriteString(formatResources(result.Resources))
	return b.String()
}

func formatResources(resources []Resource) string {
	if len(resources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Emergency Resources:\n\n")
	for _, r := range resources {
		b.WriteString("- " + r.Name + "\n")
		b.WriteString("  " + r.Contact + "\n")
		b.WriteString("  " + r.Description + "\n\n")
	}
	return b.String()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsResource(list []Resource, r Resource) bool {
	for _, v := range list {
		if v == r {
			return true
		}
	}
	return false
}
