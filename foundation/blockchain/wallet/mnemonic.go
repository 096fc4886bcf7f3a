package wallet

import (
	"crypto/rand"
	"strings"
)

// mnemonicWords is the number of words in a recovery phrase.
const mnemonicWords = 12

var wordlist = []string{
	"abandon", "ability", "able", "about", "above", "absent", "absorb", "abstract", "absurd", "abuse",
	"access", "accident", "account", "accuse", "achieve", "acid", "acoustic", "acquire", "across", "act",
	"action", "actor", "actress", "actual", "adapt", "add", "addict", "address", "adjust", "admit",
	"adult", "advance", "advice", "aerobic", "affair", "afford", "afraid", "again", "age", "agent",
	"agree", "ahead", "aim", "air", "airport", "aisle", "alarm", "album", "alcohol", "alert",
	"alien", "all", "alley", "allow", "almost", "alone", "alpha", "already", "also", "alter",
	"always", "amateur", "amazing", "among", "amount", "amused", "analyst", "anchor", "ancient", "anger",
}

// Mnemonic returns a random phrase of twelve words. The phrase is a memory
// aid only, keys are not derived from it.
func Mnemonic() (string, error) {
	entropy := make([]byte, 16)
	if _, err := rand.Read(entropy); err != nil {
		return "", err
	}

	words := make([]string, mnemonicWords)
	for i := range words {
		words[i] = wordlist[int(entropy[i%len(entropy)])%len(wordlist)]
	}

	return strings.Join(words, " "), nil
}
