package action

// User-facing result messages. These surface directly in the UI and stay in
// pt-BR; log lines stay English.
const (
	MsgAlreadyPassed  = "O horário selecionado já passou"
	MsgTooFarInFuture = "O horário não pode ser mais de 24 horas no futuro"

	msgURLMissing = "URL não fornecida"
	msgURLInvalid = "URL inválida"
)
