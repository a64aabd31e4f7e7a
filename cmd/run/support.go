package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"math"
	"math/big"
	"strconv"

	"github.com/zintix-labs/matchlab/demo"
	"github.com/zintix-labs/matchlab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	name      string
	id        spec.LID
	worker    int
	session   int
	moves     int
	rounds    int
	seed      int64
	pprofmode string
}

type lidFlag struct{ p *spec.LID }

func (f lidFlag) String() string { return fmt.Sprint(int(*f.p)) }
func (f lidFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return err
	}
	*f.p = spec.LID(u)
	return nil
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.Var(lidFlag{&cfg.id}, "level", "target level id")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.session, "session", 1, "number of sessions")
	flag.IntVar(&cfg.moves, "moves", 30, "move budget per session")
	flag.IntVar(&cfg.rounds, "rounds", 10000000, "simulated moves")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// given seed illeagel -> default seed
	if cfg.seed < 1 {
		seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			log.Fatal(err)
		}
		cfg.seed = seed.Int64()
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() {
	cfg.valid() // 基本檢查

	lab, err := demo.NewMatchlab()
	if err != nil {
		log.Fatal(err)
	}
	s, err := lab.NewSimulatorWithSeed(cfg.id, cfg.seed)
	if err != nil {
		log.Fatal(err)
	}
	ent, _ := lab.EntryById(cfg.id)
	cfg.name = ent.Name
	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)

	if cfg.session == 1 { // 純棋盤模擬
		if cfg.worker == 1 { // 單線程
			p.Printf("%s[LEVEL:%s] [ROUNDS:%d]%s\n", green, cfg.name, cfg.rounds, reset)
			st, used, err := s.Sim(cfg.rounds, true)
			if err != nil {
				log.Fatal(err)
			}
			st.StdOut(used)
		} else {
			p.Printf("%s[WORKERS:%d] [LEVEL:%s] [ROUNDS:%d]%s\n", green, cfg.worker, cfg.name, cfg.worker*cfg.rounds, reset)
			st, used, err := s.SimMP(cfg.rounds, cfg.worker, true) // 併發
			if err != nil {
				log.Fatal(err)
			}
			st.StdOut(used)
		}
	} else { // 模擬多場遊玩 session
		p.Printf("%s[WORKERS:%d] [LEVEL:%s] [SESSIONS:%d MOVES:%d]%s\n", green, cfg.worker, cfg.name, cfg.session, cfg.moves, reset)
		st, est, used, err := s.SimSessions(cfg.worker, cfg.session, cfg.moves, true)
		if err != nil {
			log.Fatal(err)
		}
		st.StdOut(used)
		est.Out()
	}
}

func (cfg *config) valid() {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}

	// session 檢查
	if cfg.session < 1 {
		log.Fatal("value err : session must > 0")
	}
	// session 數量太多 resize
	if cfg.session > 100000 {
		p.Printf("too much sessions: %d resized to 100k sessions\n", cfg.session)
		cfg.session = 100000
	}

	// 轉數檢查
	if cfg.rounds < 1 {
		log.Fatal("value err : rounds must > 0")
	}

	// 模擬 session 的時候，單場步數上限 15000（一場三消遊玩不會更長，超過即轉為長期統計）
	if cfg.session > 1 && cfg.moves > 15000 {
		p.Printf("too much moves for each session : %d resized to 15k moves\n", cfg.moves)
		cfg.moves = 15000
	}
	if cfg.session > 1 && cfg.moves < 1 {
		log.Fatal("value err : moves must > 0")
	}
}
