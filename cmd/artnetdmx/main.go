package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/jsimonetti/go-artnet/packet"
	"github.com/rewbycraft/go-gpiodmx/pkg/gpiodmx"
	"github.com/rewbycraft/go-gpiodmx/pkg/uartdmx"
)

func artRecvLoop(universe *gpiodmx.Universe, portAddress int, pc net.PacketConn, done chan struct{}) {
	keepGoing := true
	buffer := make([]byte, 4096)

	log.Println("Art-Net Receive loop is running.")
	for keepGoing {
		select {
		case <-done:
			keepGoing = false
			continue
		default:
		}

		pc.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		_, _, err := pc.ReadFrom(buffer)
		if err != nil {
			if err, ok := err.(net.Error); ok && err.Timeout() {
				continue
			}
			log.Fatalf("Art-Net receive: %v", err)
		}

		p := packet.NewArtDMXPacket()
		if err := p.UnmarshalBinary(buffer); err != nil {
			log.Println("Received invalid packet. Ignoring...")
			continue
		}

		gpiodmx.ApplyArtDMX(universe, p, portAddress)
	}
	log.Println("Exited recv loop!")
}

// statusLoop reports the frame rate and stops on a failed output.
func statusLoop(ctrl *gpiodmx.Controller, done chan struct{}) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	last := ctrl.Frames()
	for {
		select {
		case <-done:
			log.Println("Exited status loop!")
			return
		case <-ticker.C:
		}

		frames := ctrl.Frames()
		log.Printf("DMX: %.1f frames/s, %d channels", float64(frames-last)/5, ctrl.Universe().MaxChannel())
		last = frames

		if err := ctrl.Err(); err != nil {
			log.Printf("DMX output failed, stopping: %v", err)
			ctrl.Stop()
		}
	}
}

func main() {
	pinPtr := flag.String("pin", "GPIO18", "GPIO line to bit-bang DMX on.")
	devPtr := flag.String("dev", "", "Serial device to use for DMX output instead of a GPIO line.")
	listenPtr := flag.String("listen", ":6454", "Listen string for Art-Net endpoint.")
	universePtr := flag.Int("universe", gpiodmx.AnyPortAddress, "Art-Net port address to accept, -1 for any.")
	channelsPtr := flag.Int("channels", gpiodmx.Capacity512, "Number of DMX channels to transmit.")
	tickPtr := flag.Duration("tick", gpiodmx.DefaultTickPeriod, "Period of the transmit tick.")
	utilPtr := flag.Float64("utilization", gpiodmx.DefaultUtilization, "Share of each tick spent transmitting.")
	cpuPtr := flag.Int("cpu", -1, "Pin the transmit thread to this CPU, -1 to leave it floating.")
	prioPtr := flag.Int("priority", 0, "SCHED_FIFO priority of the transmit thread, 0 for none.")
	lockPtr := flag.Bool("lock-memory", false, "Lock process memory to avoid page faults while transmitting.")

	flag.Parse()

	opts := []gpiodmx.Option{
		gpiodmx.WithTickPeriod(*tickPtr),
		gpiodmx.WithUtilization(*utilPtr),
		gpiodmx.WithRealtime(gpiodmx.Realtime{CPU: *cpuPtr, Priority: *prioPtr, LockMemory: *lockPtr}),
	}

	if *devPtr != "" {
		log.Println("Opening UART device...")
		uart, err := uartdmx.Open(*devPtr)
		if err != nil {
			log.Fatalf("open %s: %v", *devPtr, err)
		}
		defer uart.Close()
		opts = append(opts, gpiodmx.WithTransmitter(uart))
	}

	ctrl, err := gpiodmx.New(opts...)
	if err != nil {
		log.Fatal(err)
	}
	defer ctrl.Close()

	if *devPtr == "" {
		log.Printf("Opening GPIO line %s...", *pinPtr)
		pin, err := gpiodmx.OpenPin(*pinPtr)
		if err != nil {
			log.Fatal(err)
		}
		if err := ctrl.SetOutputPin(pin); err != nil {
			log.Fatal(err)
		}
	}
	ctrl.SetMaxChannel(*channelsPtr)

	log.Println("Opening listening port...")
	pc, err := net.ListenPacket("udp", *listenPtr)
	if err != nil {
		log.Fatal(err)
	}
	defer pc.Close()

	log.Printf("Transmitting %d channels, %d bit periods per %v tick.", ctrl.Universe().MaxChannel(), ctrl.Budget(), *tickPtr)
	if err := ctrl.Start(); err != nil {
		log.Fatal(err)
	}

	doneArt := make(chan struct{})
	doneStatus := make(chan struct{})
	waiter := sync.WaitGroup{}

	waiter.Add(2)
	go func() {
		defer waiter.Done()
		artRecvLoop(ctrl.Universe(), *universePtr, pc, doneArt)
	}()

	go func() {
		defer waiter.Done()
		statusLoop(ctrl, doneStatus)
	}()

	log.Println("Waiting for Ctrl-C to exit...")
	WaitForCtrlC()

	close(doneArt)
	close(doneStatus)
	ctrl.Stop()

	log.Println("Waiting for threads to exit...")
	waiter.Wait()
}

// https://jjasonclark.com/waiting_for_ctrl_c_in_golang/
func WaitForCtrlC() {
	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt)
	<-signalChannel
}
