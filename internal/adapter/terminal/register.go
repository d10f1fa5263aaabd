package terminal

import "github.com/Strob0t/lspkeeper/internal/port/notifier"

func init() {
	notifier.Register(providerName, func(map[string]string) (notifier.UI, error) {
		return New(), nil
	})
}
