package pii

// MaskedNationalIDPlaceholder is shown when there is nothing safe to reveal.
const MaskedNationalIDPlaceholder = "XXXX XXXX XXXX"

const nationalIDLength = 12

// Mask reveals only the last four digits of a 12-digit national ID.
func Mask(nationalID string) string {
	if len(nationalID) != nationalIDLength {
		return MaskedNationalIDPlaceholder
	}
	return "XXXX XXXX " + nationalID[nationalIDLength-4:]
}

// MaskCiphertext decrypts and masks a stored national ID. Decryption
// failures yield the placeholder; the plaintext never leaves this function.
func MaskCiphertext(p Protector, ciphertext string) string {
	if ciphertext == "" {
		return MaskedNationalIDPlaceholder
	}
	plain, err := p.Decrypt(ciphertext)
	if err != nil {
		return MaskedNationalIDPlaceholder
	}
	return Mask(plain)
}
