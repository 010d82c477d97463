package patient

import (
	"time"

	"github.com/emr/emr/internal/platform/apperr"
)

// ValidateIDCardBirthDate checks that the birth date embedded in a national
// ID card number matches the declared birth date. 18-digit cards carry
// yyyymmdd at positions 6..13; legacy 15-digit cards carry yymmdd at
// positions 6..11 with an implied 19xx century. Any other length is a
// malformed card number.
func ValidateIDCardBirthDate(idCard string, birthDate time.Time) error {
	var embedded string
	switch len(idCard) {
	case 18:
		embedded = idCard[6:14]
	case 15:
		embedded = "19" + idCard[6:12]
	default:
		return apperr.Validationf("invalid ID card format")
	}

	if birthDate.Format("20060102") != embedded {
		return apperr.Validationf("birth date does not match ID card")
	}
	return nil
}

// CalculateAge returns completed years between birth and now: the age only
// increments once the birthday has passed in the current year.
func CalculateAge(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// validateStatus enforces the status lifecycle rules: a deceased patient
// must carry a death date.
func validateStatus(status string, deathDate *time.Time) error {
	switch status {
	case StatusActive, StatusInactive:
		return nil
	case StatusDeceased:
		if deathDate == nil {
			return apperr.Validationf("death date is required when status is deceased")
		}
		return nil
	default:
		return apperr.Validationf("unknown status %q", status)
	}
}
