package dialog

import (
	"fmt"
	"time"

	"github.com/lojasmm/lista/internal/render"
)

const (
	msgBrandPrompt     = "¿Sobre qué marca quieres saber?"
	msgInvalidBrand    = "Opción inválida. Por favor selecciona una marca válida."
	msgInvalidCategory = "Opción inválida. Por favor selecciona una categoría válida."
	msgNoCategories    = "No hay categorías disponibles para esta marca."
	msgNoProducts      = "No hay productos disponibles en esta categoría."
	msgProductHint     = "Escribe *0* para volver o *9* para cerrar la conversación."
	msgUnexpectedError = "Ocurrió un error inesperado. Intenta de nuevo más tarde."
)

var (
	optCancel        = render.Option{Key: "0", Label: "Cancelar"}
	optBackToBrands  = render.Option{Key: "0", Label: "Volver a marcas"}
	optBack          = render.Option{Key: "0", Label: "Volver"}
	optCloseDialogue = render.Option{Key: "9", Label: "Cerrar conversación"}
)

func greeting(now time.Time) string {
	return fmt.Sprintf("¡Hola! 👋\nEsta es la lista actualizada *%s*.\n%s", render.Date(now), msgBrandPrompt)
}

func brandMenu(header string, brands []string) string {
	return render.Menu(header, brands, optCancel)
}

func categoryMenu(brand string, categories []string) string {
	return render.Menu(fmt.Sprintf("Selecciona una categoría para *%s*:", brand), categories, optBackToBrands)
}

func productList(category string, cards []string) string {
	return render.ProductList(category+" disponibles:", cards, optBack, optCloseDialogue)
}

func cancelled(keyword string) string {
	return fmt.Sprintf("Conversación reiniciada. Escribe %s para empezar de nuevo.", keyword)
}

func closed(keyword string) string {
	return fmt.Sprintf("Conversación cerrada. Escribe %s para empezar de nuevo.", keyword)
}
