package dialog

import (
	"fmt"
	"strings"

	"github.com/Rrens/fairway/internal/domain"
)

// PhotoReceivedDescription is stored when a photo arrives without a caption
const PhotoReceivedDescription = "photo received"

const (
	msgNoCourses         = "❌ Aucun parcours configuré pour ce club."
	msgCourseNotSelected = "❌ Erreur : parcours non sélectionné. Tapez 'reset' pour recommencer."
	msgMissingFields     = "❌ Informations manquantes. Tapez 'reset' pour recommencer."
	msgDescriptionShort  = "❌ La description est trop courte. Décris le problème en quelques mots."
	msgDescriptionStored = "✅ Description enregistrée.\n\n📸 Envoie une photo de l'incident si possible, ou tape \"Fini\" pour continuer sans photo."
	msgDescriptionAmend  = "✅ Description complétée.\n\n📸 Envoie une photo de l'incident, ou tape \"Fini\" pour terminer."
	msgDescriptionFirst  = "❌ Décris d'abord le problème avant de terminer."
	msgPhotoPrompt       = "📸 Envoie une photo de l'incident, ou tape \"Fini\" pour continuer sans photo."
	msgCompleted         = "✅ Signalement enregistré et visible sur le Dashboard. Merci !"
	msgPhotoCompleted    = "✅ Photo reçue ! Enregistrement en cours..."
	msgInvalidState      = "❌ État de session invalide. Tapez 'reset' pour recommencer."
)

// CourseNotFoundReply is sent when the selected course no longer exists
const CourseNotFoundReply = "❌ Parcours introuvable. Tapez 'reset' pour recommencer."

func courseMenu(greeting string, courses []domain.Course) string {
	var b strings.Builder
	b.WriteString(greeting)
	b.WriteString("\n\n")
	for i, c := range courses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Name)
	}
	b.WriteString("\nRéponds par le numéro ou le nom du parcours.")
	return b.String()
}

func courseSelected(c domain.Course) string {
	return fmt.Sprintf("✅ Parcours \"%s\" sélectionné.\n\nQuel numéro de trou ? (1 à %d)", c.Name, c.HoleCount)
}

func holeUnreadable(c domain.Course) string {
	return fmt.Sprintf("❌ Je n'ai pas compris le numéro de trou. Indique un nombre entre 1 et %d.\n\nExemple : \"4\" ou \"Trou 4\"", c.HoleCount)
}

func holeOutOfRange(c domain.Course) string {
	return fmt.Sprintf("❌ Le parcours \"%s\" n'a que %d trous. Indique un numéro entre 1 et %d.", c.Name, c.HoleCount, c.HoleCount)
}

func holeSelected(hole int) string {
	return fmt.Sprintf("✅ Trou %d sélectionné.\n\nDécris-moi le problème en quelques mots.", hole)
}
