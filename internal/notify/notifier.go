package notify

import "log"

// Event: bir depoya adreslenmiş bildirim. Teslimat (push vs.) çekirdeğin
// dışında kalır; burası yalnızca olay noktasını açar.
type Event struct {
	Kind       string // transfer-created / transfer-accepted / transfer-rejected
	LocationID uint   // hedef depo
	Title      string
	Body       string
	TransferID string // transferin public id'si
}

type Notifier interface {
	Notify(Event)
}

// LogNotifier: varsayılan uygulama; olayı loglamakla yetinir.
type LogNotifier struct{}

func (LogNotifier) Notify(e Event) {
	log.Printf("[NOTIFY] depo=%d %s: %s | %s", e.LocationID, e.Kind, e.Title, e.Body)
}

var Default Notifier = LogNotifier{}

// Send: işlem commit edildikten sonra çağrılır; bildirim hatası iş akışını
// etkilemez.
func Send(e Event) {
	if Default != nil {
		Default.Notify(e)
	}
}
