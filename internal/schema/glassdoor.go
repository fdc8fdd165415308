package schema

// Column names the normalization pipeline and the gate rely on.
const (
	FieldCompanyName = "Company_name"
	FieldRating      = "Rating"
	FieldSalary      = "Salary"
	FieldEasyApply   = "Easy_apply"
	FieldEmployees   = "Employees"
	FieldRevenue     = "Revenue_USD"

	FieldSalaryLow      = "Salary_low"
	FieldSalaryHigh     = "Salary_high"
	FieldCurrency       = "Currency"
	FieldSalaryProvided = "Salary_provided"
)

// Glassdoor is the schema of a Glassdoor job posting. Locators are playwright
// selectors; the "xpath=" ones are relative to their block scope.
func Glassdoor() Schema {
	return Schema{Blocks: []Block{
		{
			Name:   "job description",
			Source: Detail,
			Fields: []Field{
				SingleField(FieldCompanyName, `div[data-test="employerName"]`),
				SingleField(FieldRating, `span[data-test="detailRating"]`),
				SingleField("Location", `div[data-test="location"]`),
				SingleField("Job_title", `div[data-test="jobTitle"]`),
				SingleField("Description", `div.jobDescriptionContent`),
				SingleField(FieldSalary, `span[data-test="detailSalary"]`),
			},
		},
		{
			Name:   "job button",
			Source: Item,
			Fields: []Field{
				SingleField("Job_age", `div[data-test="job-age"]`),
				SingleField(FieldEasyApply, `div.css-pxdlb2 > div:first-child`),
			},
		},
		{
			Name:     "company description",
			Source:   Detail,
			Optional: true,
			Anchor:   `#EmpBasicInfo`,
			Fields: []Field{
				SingleField(FieldEmployees, `xpath=.//div//*[text() = "Size"]/following-sibling::*`),
				SingleField("Type_of_ownership", `xpath=.//div//*[text() = "Type"]/following-sibling::*`),
				SingleField("Sector", `xpath=.//div//*[text() = "Sector"]/following-sibling::*`),
				SingleField("Founded", `xpath=.//div//*[text() = "Founded"]/following-sibling::*`),
				SingleField("Industry", `xpath=.//div//*[text() = "Industry"]/following-sibling::*`),
				SingleField(FieldRevenue, `xpath=.//div//*[text() = "Revenue"]/following-sibling::*`),
			},
		},
		{
			Name:     "company ratings",
			Source:   Detail,
			Optional: true,
			Anchor:   `div[data-test="company-ratings"]`,
			Fields: []Field{
				SingleField("Friend_recommend", `div[class="css-ztsow4"]`),
				SingleField("CEO_approval", `div[class="css-ztsow4 ceoApprove"]`),
				SingleField("Career_Opportunities", `xpath=.//*[text() = "Career Opportunities"]/following-sibling::span[2]`),
				SingleField("Comp_&_Benefits", `xpath=.//*[text() = "Comp & Benefits"]/following-sibling::span[2]`),
				SingleField("Culture_&_Values", `xpath=.//*[text() = "Culture & Values"]/following-sibling::span[2]`),
				SingleField("Senior_Management", `xpath=.//*[text() = "Senior Management"]/following-sibling::span[2]`),
				SingleField("Work/Life_Balance", `xpath=.//*[text() = "Work/Life Balance"]/following-sibling::span[2]`),
			},
		},
		{
			Name:     "reviews by job title",
			Source:   Detail,
			Optional: true,
			Anchor:   `#Reviews`,
			Fields: []Field{
				ListField("Pros", `xpath=.//*[text() = "Pros"]/parent::div//p`),
				ListField("Cons", `xpath=.//*[text() = "Cons"]/parent::div//p`),
			},
		},
		{
			Name:     "benefits review",
			Source:   Detail,
			Optional: true,
			Anchor:   `#Benefits`,
			Fields: []Field{
				SingleField("Benefits_rating", `div[data-brandviews^="MODULE:n=jobs-benefitsRating"] div.ratingNum`),
				ListField("Benefits_reviews", `div[data-brandviews^="MODULE:n=jobs-benefitsHighlights"] > div`),
			},
		},
	}}
}
