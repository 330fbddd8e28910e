package localization

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
)

//go:embed locales/en.json
var catalogJSON []byte

// Localization is the bot's message catalog. Values are fmt templates filled
// by Get.
type Localization struct {
	translations map[string]string
}

func New() *Localization {
	var translations map[string]string
	if err := json.Unmarshal(catalogJSON, &translations); err != nil {
		log.Fatalf("Failed to parse embedded message catalog: %v", err)
	}

	return &Localization{translations: translations}
}

func (l *Localization) Get(key string, args ...interface{}) string {
	template, exists := l.translations[key]
	if !exists {
		return fmt.Sprintf("Missing translation: %s", key)
	}

	if len(args) > 0 {
		return fmt.Sprintf(template, args...)
	}

	return template
}
