package record

// ValidTaxID reports whether digits form a CNPJ or CPF with correct check digits.
func ValidTaxID(digits string) bool {
	switch len(digits) {
	case 14:
		return validateCNPJ(digits)
	case 11:
		return validateCPF(digits)
	default:
		return false
	}
}

// validateCNPJ checks both mod-11 verification digits of a 14-digit CNPJ.
func validateCNPJ(s string) bool {
	if repeated(s) {
		return false
	}
	w1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	w2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	return checkDigit(s[:12], w1) == int(s[12]-'0') &&
		checkDigit(s[:13], w2) == int(s[13]-'0')
}

// validateCPF checks both mod-11 verification digits of an 11-digit CPF.
func validateCPF(s string) bool {
	if repeated(s) {
		return false
	}
	w1 := []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	w2 := []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	return checkDigit(s[:9], w1) == int(s[9]-'0') &&
		checkDigit(s[:10], w2) == int(s[10]-'0')
}

func checkDigit(s string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(s[i]-'0') * w
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// repeated rejects sequences like 00000000000000 that pass the arithmetic.
func repeated(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
