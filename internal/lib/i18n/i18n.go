// Package i18n содержит каталог локализованных сообщений сервиса (sr и en).
//
// Язык берется из контекста запроса; сербский — язык по умолчанию.
// Неизвестный ключ возвращается как есть.
package i18n

// LangSR и LangEN поддерживаемые языки.
const (
	LangSR = "sr"
	LangEN = "en"
)

type message struct {
	sr string
	en string
}

var messages = map[string]message{
	"QuizCreated":                 {sr: "Kviz je uspešno kreiran.", en: "Quiz created successfully."},
	"ValidationRequired":          {sr: "Polje je obavezno.", en: "Field is required."},
	"Forbidden":                   {sr: "Nemate dozvolu za ovu akciju.", en: "You are not allowed to perform this action."},
	"OwnerOnly":                   {sr: "Samo vlasnik organizacije može izvršiti ovu akciju.", en: "Only the organization owner can perform this action."},
	"CannotAssignOwner":           {sr: "Uloga vlasnika se ne može dodeliti.", en: "The owner role cannot be assigned."},
	"CannotRemoveAdmin":           {sr: "Administrator ne može ukloniti drugog administratora.", en: "An admin cannot remove another admin."},
	"OrganizationNotFound":        {sr: "Organizacija nije pronađena.", en: "Organization not found."},
	"TrialOnlyFromFree":           {sr: "Probni period je dostupan samo sa besplatnog plana.", en: "Trial can only be started from the free plan."},
	"DowngradeRemoveMembersFirst": {sr: "Uklonite dodatne članove pre prelaska na besplatan plan.", en: "Remove extra members before downgrading to free."},
	"FeatureRequiresPremium":      {sr: "Funkcija '{feature}' zahteva premium plan.", en: "Feature '{feature}' requires premium."},
	"FreeQuizLimitReached":        {sr: "Dostignut je mesečni limit kvizova za besplatan plan.", en: "Free plan monthly quiz limit reached."},
	"FreeMemberLimitReached":      {sr: "Besplatan plan dozvoljava samo jednog člana.", en: "Free plan allows a single member only."},
	"AdminCapReached":             {sr: "Dostignut je limit administratorskih naloga (najviše 3).", en: "Admin cap reached (max 3 admin-level accounts)."},
	"HelpAlreadyUsed":             {sr: "Pomoć je već iskorišćena za ovaj tim u ovom kvizu.", en: "Help already used for this team in this quiz."},
	"ScoreLocked":                 {sr: "Rezultat kategorije je zaključan.", en: "Category score is locked."},
	"TrialReminderSubject":        {sr: "Vaš probni period uskoro ističe", en: "Your trial is about to expire"},
}

// T возвращает сообщение по ключу на заданном языке.
func T(lang, key string) string {
	msg, ok := messages[key]
	if !ok {
		return key
	}
	if lang == LangEN {
		return msg.en
	}
	return msg.sr
}
