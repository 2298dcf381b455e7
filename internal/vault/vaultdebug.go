//go:build vaultdebug

package vault

// RevealExpectedCVC exposes the simulated issuer's expected CVC for a card
// number. Only compiled under the vaultdebug tag; production binaries have
// no way to reach the expected value.
func RevealExpectedCVC(number string) string {
	return expectedCVC(number)
}
