package web

// ShareView is everything the share page renders for one event.
type ShareView struct {
	EventCode        string
	Title            string
	HostName         string
	Phase            string
	ParticipantCount int
	QRDataURL        string
	JoinURL          string
}
