package providers

import "testing"

func TestValidCPFChecksum_KnownValidNumber(t *testing.T) {
	if !ValidCPFChecksum("11144477735") {
		t.Error("expected 111.444.777-35 to be a valid CPF checksum")
	}
}

func TestValidCPFChecksum_WrongCheckDigitFails(t *testing.T) {
	if ValidCPFChecksum("11144477730") {
		t.Error("expected a corrupted check digit to fail validation")
	}
}

func TestValidCPFChecksum_AllEqualDigitsRejected(t *testing.T) {
	if ValidCPFChecksum("00000000000") {
		t.Error("expected the well-known all-zero sequence to be rejected")
	}
	if ValidCPFChecksum("11111111111") {
		t.Error("expected an all-equal-digit sequence to be rejected")
	}
}

func TestValidCPFChecksum_WrongLengthFails(t *testing.T) {
	if ValidCPFChecksum("123") {
		t.Error("expected a too-short input to fail validation")
	}
	if ValidCPFChecksum("111444777351") {
		t.Error("expected a too-long input to fail validation")
	}
}

func TestValidCPFChecksum_NonDigitFails(t *testing.T) {
	if ValidCPFChecksum("1114447773a") {
		t.Error("expected a non-digit character to fail validation")
	}
}
