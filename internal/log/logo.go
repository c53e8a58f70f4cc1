package log

import (
	"fmt"

	"github.com/mbndr/figlet4go"
)

// PrintLogo renders the service name as an ASCII banner on startup.
func PrintLogo(name string, colors []string) {
	render := figlet4go.NewAsciiRender()

	options := figlet4go.NewRenderOptions()
	options.FontColor = make([]figlet4go.Color, 0, len(colors))
	for _, hex := range colors {
		clr, err := figlet4go.NewTrueColorFromHexString(hex)
		if err != nil {
			continue
		}
		options.FontColor = append(options.FontColor, clr)
	}

	banner, err := render.RenderOpts(name, options)
	if err != nil {
		fmt.Println(name)
		return
	}
	fmt.Print(banner)
}
