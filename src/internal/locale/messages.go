package locale

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. The English text doubles as the key.
const (
	MsgRequired = "The %s field is required."
	MsgMax      = "The %s may not be greater than %d characters."
	MsgString   = "The %s must be a string."
	MsgEmail    = "The %s must be a valid email address."
	MsgUUID     = "The %s must be a valid identifier."
	MsgInvalid  = "The %s is invalid."
)

var catalog = map[language.Tag]map[string]string{
	language.French: {
		MsgRequired: "Le champ %s est obligatoire.",
		MsgMax:      "Le champ %s ne peut contenir plus de %d caractères.",
		MsgString:   "Le champ %s doit être une chaîne de caractères.",
		MsgEmail:    "Le champ %s doit être une adresse e-mail valide.",
		MsgUUID:     "Le champ %s doit être un identifiant valide.",
		MsgInvalid:  "Le champ %s est invalide.",
	},
	language.German: {
		MsgRequired: "%s muss ausgefüllt sein.",
		MsgMax:      "%s darf maximal %d Zeichen haben.",
		MsgString:   "%s muss ein String sein.",
		MsgEmail:    "%s muss eine gültige E-Mail-Adresse sein.",
		MsgUUID:     "%s muss eine gültige Kennung sein.",
		MsgInvalid:  "%s ist ungültig.",
	},
	language.Spanish: {
		MsgRequired: "El campo %s es obligatorio.",
		MsgMax:      "El campo %s no debe contener más de %d caracteres.",
		MsgString:   "El campo %s debe ser una cadena de caracteres.",
		MsgEmail:    "El campo %s debe ser una dirección de correo válida.",
		MsgUUID:     "El campo %s debe ser un identificador válido.",
		MsgInvalid:  "El campo %s no es válido.",
	},
	language.Portuguese: {
		MsgRequired: "O campo %s é obrigatório.",
		MsgMax:      "O campo %s não pode ter mais de %d caracteres.",
		MsgString:   "O campo %s deve ser um texto.",
		MsgEmail:    "O campo %s deve ser um endereço de e-mail válido.",
		MsgUUID:     "O campo %s deve ser um identificador válido.",
		MsgInvalid:  "O campo %s é inválido.",
	},
	language.Italian: {
		MsgRequired: "Il campo %s è obbligatorio.",
		MsgMax:      "Il campo %s non può contenere più di %d caratteri.",
		MsgString:   "Il campo %s deve essere una stringa.",
		MsgEmail:    "Il campo %s deve essere un indirizzo email valido.",
		MsgUUID:     "Il campo %s deve essere un identificativo valido.",
		MsgInvalid:  "Il campo %s non è valido.",
	},
	language.Dutch: {
		MsgRequired: "Het %s veld is verplicht.",
		MsgMax:      "Het %s veld mag niet meer dan %d karakters bevatten.",
		MsgString:   "Het %s veld moet een tekst zijn.",
		MsgEmail:    "Het %s veld moet een geldig e-mailadres zijn.",
		MsgUUID:     "Het %s veld moet een geldige identificatie zijn.",
		MsgInvalid:  "Het %s veld is ongeldig.",
	},
}

func init() {
	for tag, entries := range catalog {
		for key, translation := range entries {
			if err := message.SetString(tag, key, translation); err != nil {
				panic(err)
			}
		}
	}
}
