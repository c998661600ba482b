package fieldmap

import "github.com/sells-group/docfill/internal/model"

// Form types known to the record system.
const (
	FormAward                 = "award"
	FormJournalPublication    = "journal_publication"
	FormConferencePublication = "conference_publication"
	FormBook                  = "book"
	FormBookChapter           = "book_chapter"
	FormPatent                = "patent"
	FormCollaboration         = "collaboration"
	FormResearchProject       = "research_project"
	FormConsultancy           = "consultancy"
	FormFDP                   = "fdp"
	FormEventOrganized        = "event_organized"
	FormPhDGuidance           = "phd_guidance"
	FormMembership            = "membership"
)

// defaultFormTypes maps (category, subCategory) as reported by the extraction
// service to a form type. An empty subCategory is the category-wide default.
var defaultFormTypes = []FormTypeRule{
	{Category: "Award", FormType: FormAward},
	{Category: "Achievement", FormType: FormAward},
	{Category: "Recognition", FormType: FormAward},
	{Category: "Honour", FormType: FormAward},

	{Category: "Publication", FormType: FormJournalPublication},
	{Category: "Publication", SubCategory: "Journal", FormType: FormJournalPublication},
	{Category: "Publication", SubCategory: "Journal Paper", FormType: FormJournalPublication},
	{Category: "Publication", SubCategory: "Journal Article", FormType: FormJournalPublication},
	{Category: "Publication", SubCategory: "Research Paper", FormType: FormJournalPublication},
	{Category: "Publication", SubCategory: "Conference", FormType: FormConferencePublication},
	{Category: "Publication", SubCategory: "Conference Paper", FormType: FormConferencePublication},
	{Category: "Publication", SubCategory: "Proceedings", FormType: FormConferencePublication},
	{Category: "Publication", SubCategory: "Book", FormType: FormBook},
	{Category: "Publication", SubCategory: "Book Chapter", FormType: FormBookChapter},
	{Category: "Publication", SubCategory: "Chapter", FormType: FormBookChapter},
	{Category: "Journal Paper", FormType: FormJournalPublication},
	{Category: "Conference Paper", FormType: FormConferencePublication},
	{Category: "Book", FormType: FormBook},
	{Category: "Book Chapter", FormType: FormBookChapter},

	{Category: "Patent", FormType: FormPatent},
	{Category: "Intellectual Property", FormType: FormPatent},

	{Category: "Collaboration", FormType: FormCollaboration},
	{Category: "MoU", FormType: FormCollaboration},
	{Category: "Linkage", FormType: FormCollaboration},

	{Category: "Research Project", FormType: FormResearchProject},
	{Category: "Project", FormType: FormResearchProject},
	{Category: "Grant", FormType: FormResearchProject},
	{Category: "Consultancy", FormType: FormConsultancy},

	{Category: "FDP", FormType: FormFDP},
	{Category: "Faculty Development Program", FormType: FormFDP},
	{Category: "Training", FormType: FormFDP},
	{Category: "Workshop", FormType: FormFDP},
	{Category: "Workshop", SubCategory: "Attended", FormType: FormFDP},
	{Category: "Workshop", SubCategory: "Organized", FormType: FormEventOrganized},
	{Category: "Event", FormType: FormEventOrganized},
	{Category: "Seminar", FormType: FormEventOrganized},
	{Category: "Conference", SubCategory: "Organized", FormType: FormEventOrganized},

	{Category: "PhD Guidance", FormType: FormPhDGuidance},
	{Category: "Research Guidance", FormType: FormPhDGuidance},

	{Category: "Membership", FormType: FormMembership},
	{Category: "Professional Membership", FormType: FormMembership},
}

func spec(key string, kind model.FieldKind) FieldSpec { return FieldSpec{Key: key, Kind: kind} }

const (
	kText   = model.KindText
	kDate   = model.KindDate
	kBool   = model.KindBool
	kNumber = model.KindNumber
	kChoice = model.KindChoice
)

// defaultForms holds extraction labels per form type. Labels are folded when
// the mapper is built, so case and punctuation do not matter here.
var defaultForms = map[string]map[string]FieldSpec{
	FormAward: {
		"Award Name":        spec("award_name", kText),
		"Name of Award":     spec("award_name", kText),
		"Title of Award":    spec("award_name", kText),
		"Title":             spec("award_name", kText),
		"Awarding Agency":   spec("awarding_agency", kText),
		"Awarding Body":     spec("awarding_agency", kText),
		"Issuing Authority": spec("awarding_agency", kText),
		"Agency":            spec("awarding_agency", kText),
		"Organization":      spec("awarding_agency", kText),
		"Date":              spec("award_date", kDate),
		"Award Date":        spec("award_date", kDate),
		"Date of Award":     spec("award_date", kDate),
		"Level":             spec("level", kChoice),
		"Award Level":       spec("level", kChoice),
		"Amount":            spec("amount", kNumber),
		"Prize Money":       spec("amount", kNumber),
		"Cash Prize":        spec("amount", kNumber),
		"Category":          spec("award_category", kChoice),
		"Recipient":         spec("recipient_name", kText),
		"Awardee":           spec("recipient_name", kText),
		"Faculty Name":      spec("recipient_name", kText),
		"Year":              spec("award_year", kNumber),
		"Description":       spec("description", kText),
	},
	FormJournalPublication: {
		"Title":               spec("title", kText),
		"Paper Title":         spec("title", kText),
		"Article Title":       spec("title", kText),
		"Journal":             spec("journal_name", kText),
		"Journal Name":        spec("journal_name", kText),
		"Authors":             spec("authors", kText),
		"Author":              spec("authors", kText),
		"Volume":              spec("volume", kText),
		"Issue":               spec("issue", kText),
		"Pages":               spec("pages", kText),
		"Page Numbers":        spec("pages", kText),
		"ISSN":                spec("issn", kText),
		"DOI":                 spec("doi", kText),
		"Publisher":           spec("publisher", kText),
		"Date":                spec("publication_date", kDate),
		"Publication Date":    spec("publication_date", kDate),
		"Date of Publication": spec("publication_date", kDate),
		"Year":                spec("publication_year", kNumber),
		"Impact Factor":       spec("impact_factor", kNumber),
		"Indexing":            spec("indexing", kChoice),
		"Indexed In":          spec("indexing", kChoice),
		"Peer Reviewed":       spec("is_peer_reviewed", kBool),
		"UGC Care":            spec("is_ugc_care", kBool),
		"UGC Care Listed":     spec("is_ugc_care", kBool),
	},
	FormConferencePublication: {
		"Title":                    spec("title", kText),
		"Paper Title":              spec("title", kText),
		"Authors":                  spec("authors", kText),
		"Conference":               spec("conference_name", kText),
		"Conference Name":          spec("conference_name", kText),
		"Organizer":                spec("organizer", kText),
		"Organised By":             spec("organizer", kText),
		"Organized By":             spec("organizer", kText),
		"Venue":                    spec("venue", kText),
		"Location":                 spec("venue", kText),
		"Date":                     spec("conference_date", kDate),
		"Conference Date":          spec("conference_date", kDate),
		"Level":                    spec("level", kChoice),
		"Proceedings":              spec("in_proceedings", kBool),
		"Published in Proceedings": spec("in_proceedings", kBool),
		"ISBN":                     spec("isbn", kText),
		"Presentation Type":        spec("presentation_type", kChoice),
	},
	FormBook: {
		"Title":            spec("title", kText),
		"Book Title":       spec("title", kText),
		"Authors":          spec("authors", kText),
		"Publisher":        spec("publisher", kText),
		"ISBN":             spec("isbn", kText),
		"Edition":          spec("edition", kText),
		"Date":             spec("publication_date", kDate),
		"Publication Date": spec("publication_date", kDate),
		"Year":             spec("publication_year", kNumber),
		"Level":            spec("level", kChoice),
	},
	FormBookChapter: {
		"Chapter Title":    spec("chapter_title", kText),
		"Title":            spec("chapter_title", kText),
		"Book Title":       spec("book_title", kText),
		"Editors":          spec("editors", kText),
		"Authors":          spec("authors", kText),
		"Publisher":        spec("publisher", kText),
		"ISBN":             spec("isbn", kText),
		"Pages":            spec("pages", kText),
		"Date":             spec("publication_date", kDate),
		"Publication Date": spec("publication_date", kDate),
		"Year":             spec("publication_year", kNumber),
	},
	FormPatent: {
		"Title":              spec("title", kText),
		"Patent Title":       spec("title", kText),
		"Patent Number":      spec("application_number", kText),
		"Application Number": spec("application_number", kText),
		"Filing Date":        spec("filing_date", kDate),
		"Date of Filing":     spec("filing_date", kDate),
		"Published Date":     spec("published_date", kDate),
		"Publication Date":   spec("published_date", kDate),
		"Grant Date":         spec("grant_date", kDate),
		"Status":             spec("status", kChoice),
		"Inventors":          spec("inventors", kText),
		"Patent Office":      spec("patent_office", kText),
		"Country":            spec("patent_office", kText),
	},
	FormCollaboration: {
		"Organization":         spec("partner_organization", kText),
		"Partner":              spec("partner_organization", kText),
		"Partner Organization": spec("partner_organization", kText),
		"MoU Date":             spec("signed_date", kDate),
		"Date of Signing":      spec("signed_date", kDate),
		"Date":                 spec("signed_date", kDate),
		"Valid Till":           spec("valid_until", kDate),
		"Expiry Date":          spec("valid_until", kDate),
		"Duration":             spec("duration_months", kNumber),
		"Purpose":              spec("purpose", kText),
		"Objective":            spec("purpose", kText),
		"Type":                 spec("collaboration_type", kChoice),
		"Level":                spec("level", kChoice),
		"Activities":           spec("activities", kText),
	},
	FormResearchProject: {
		"Project Title":          spec("project_title", kText),
		"Title":                  spec("project_title", kText),
		"Funding Agency":         spec("funding_agency", kText),
		"Agency":                 spec("funding_agency", kText),
		"Amount Sanctioned":      spec("sanctioned_amount", kNumber),
		"Grant Amount":           spec("sanctioned_amount", kNumber),
		"Amount":                 spec("sanctioned_amount", kNumber),
		"Sanction Date":          spec("sanction_date", kDate),
		"Start Date":             spec("start_date", kDate),
		"End Date":               spec("end_date", kDate),
		"Duration":               spec("duration_months", kNumber),
		"Principal Investigator": spec("principal_investigator", kText),
		"PI":                     spec("principal_investigator", kText),
		"Co Investigator":        spec("co_investigators", kText),
		"Co-Investigators":       spec("co_investigators", kText),
		"Status":                 spec("status", kChoice),
	},
	FormConsultancy: {
		"Title":               spec("title", kText),
		"Client":              spec("client_organization", kText),
		"Client Organization": spec("client_organization", kText),
		"Consultant":          spec("consultant_name", kText),
		"Amount":              spec("revenue_generated", kNumber),
		"Revenue":             spec("revenue_generated", kNumber),
		"Start Date":          spec("start_date", kDate),
		"End Date":            spec("end_date", kDate),
		"Date":                spec("start_date", kDate),
	},
	FormFDP: {
		"Program Name":       spec("program_title", kText),
		"Programme Title":    spec("program_title", kText),
		"Title":              spec("program_title", kText),
		"Organizer":          spec("organizer", kText),
		"Organized By":       spec("organizer", kText),
		"Start Date":         spec("start_date", kDate),
		"From":               spec("start_date", kDate),
		"End Date":           spec("end_date", kDate),
		"To":                 spec("end_date", kDate),
		"Duration":           spec("duration_days", kNumber),
		"Number of Days":     spec("duration_days", kNumber),
		"Mode":               spec("mode", kChoice),
		"Level":              spec("level", kChoice),
		"Sponsored By":       spec("sponsor", kText),
		"Certificate Number": spec("certificate_number", kText),
	},
	FormEventOrganized: {
		"Event Name":             spec("event_title", kText),
		"Title":                  spec("event_title", kText),
		"Event Type":             spec("event_type", kChoice),
		"Date":                   spec("event_date", kDate),
		"Event Date":             spec("event_date", kDate),
		"Participants":           spec("participant_count", kNumber),
		"Number of Participants": spec("participant_count", kNumber),
		"Level":                  spec("level", kChoice),
		"Sponsoring Agency":      spec("sponsor", kText),
		"Funding Amount":         spec("funding_amount", kNumber),
		"Venue":                  spec("venue", kText),
	},
	FormPhDGuidance: {
		"Scholar Name":      spec("scholar_name", kText),
		"Name of Scholar":   spec("scholar_name", kText),
		"Thesis Title":      spec("thesis_title", kText),
		"Title":             spec("thesis_title", kText),
		"Registration Date": spec("registration_date", kDate),
		"Award Date":        spec("award_date", kDate),
		"Date of Award":     spec("award_date", kDate),
		"University":        spec("university", kText),
		"Status":            spec("status", kChoice),
		"Role":              spec("guide_role", kChoice),
	},
	FormMembership: {
		"Professional Body": spec("professional_body", kText),
		"Body":              spec("professional_body", kText),
		"Organization":      spec("professional_body", kText),
		"Membership Type":   spec("membership_type", kChoice),
		"Membership Number": spec("membership_id", kText),
		"Member ID":         spec("membership_id", kText),
		"Since":             spec("start_date", kDate),
		"Date of Joining":   spec("start_date", kDate),
		"Start Date":        spec("start_date", kDate),
		"Valid Till":        spec("valid_until", kDate),
		"Level":             spec("level", kChoice),
		"Life Member":       spec("is_life_member", kBool),
	},
}
