package types

// DefaultConsultationReason replaces a missing or unusable reason.
const DefaultConsultationReason = "Consultation reason not specified"

// MedicalRecord is the normalized output of extraction. Optional fields
// serialise as null when absent.
type MedicalRecord struct {
	Symptoms           []string `json:"symptoms"`
	Patient            Patient  `json:"patient"`
	ConsultationReason string   `json:"consultationReason"`
	AdditionalNotes    *string  `json:"additionalNotes"`
}

type Patient struct {
	Name                 *string `json:"name"`
	Age                  *int    `json:"age"`
	IdentificationNumber *string `json:"identificationNumber"`
	Gender               *string `json:"gender"`
}
