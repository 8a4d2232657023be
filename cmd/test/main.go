package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/rewbycraft/go-gpiodmx/pkg/gpiodmx"
)

func main() {
	pinPtr := flag.String("pin", "GPIO18", "GPIO line to bit-bang DMX on.")
	valuePtr := flag.Int("value", 255, "Value written to every channel.")
	channelsPtr := flag.Int("channels", gpiodmx.Capacity512, "Number of channels to write.")
	oncePtr := flag.Bool("once", false, "Send a single frame and exit.")
	flag.Parse()

	pin, err := gpiodmx.OpenPin(*pinPtr)
	if err != nil {
		panic(err)
	}

	thing, err := gpiodmx.New()
	if err != nil {
		panic(err)
	}
	defer thing.Close()

	if err := thing.SetOutputPin(pin); err != nil {
		panic(err)
	}

	for i := 1; i <= *channelsPtr; i++ {
		thing.Write(i, *valuePtr)
	}
	thing.SetMaxChannel(*channelsPtr)

	if *oncePtr {
		if err := thing.SendFrame(); err != nil {
			panic(err)
		}
		for thing.Mode() != gpiodmx.Disabled {
			time.Sleep(time.Millisecond)
		}
		log.Printf("Sent %d frame(s).", thing.Frames())
		return
	}

	if err := thing.Start(); err != nil {
		panic(err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	thing.Stop()
	log.Printf("Sent %d frames.", thing.Frames())
}
