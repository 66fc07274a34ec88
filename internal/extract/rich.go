package extract

import (
	"fmt"

	"github.com/lu4p/cat"
)

// extractRich handles OpenDocument text and RTF via lu4p/cat, which sniffs the format from content.
func extractRich(content []byte) (string, error) {
	text, err := cat.FromBytes(content)
	if err != nil {
		return "", fmt.Errorf("extract rich text: %w", err)
	}
	return text, nil
}
